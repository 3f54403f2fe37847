// intentctl is a small administrative client for the intent inference
// service: classify a transaction from a JSON file, trigger a training run,
// and poll training status.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", "http://localhost:8001", "service base URL")
	key := flag.String("key", os.Getenv("ADMIN_API_KEY"), "admin API key for train commands")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	client := resty.New().
		SetBaseURL(*addr).
		SetTimeout(*timeout)

	var err error
	switch flag.Arg(0) {
	case "predict":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "predict requires a transaction JSON file")
			os.Exit(2)
		}
		err = predict(client, flag.Arg(1))
	case "train":
		err = train(client, *key)
	case "status":
		err = status(client, *key)
	case "health":
		err = health(client)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: intentctl [flags] <command>

commands:
  predict <file.json>  classify the transaction in file.json
  train                trigger a background training run
  status               show training status
  health               show service health`)
	flag.PrintDefaults()
}

func predict(client *resty.Client, path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read transaction file: %w", err)
	}

	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/predict")
	if err != nil {
		return err
	}
	return printResponse(resp)
}

func train(client *resty.Client, key string) error {
	resp, err := client.R().
		SetHeader("X-Admin-Key", key).
		Post("/train")
	if err != nil {
		return err
	}
	return printResponse(resp)
}

func status(client *resty.Client, key string) error {
	resp, err := client.R().
		SetHeader("X-Admin-Key", key).
		Get("/train/status")
	if err != nil {
		return err
	}
	return printResponse(resp)
}

func health(client *resty.Client) error {
	resp, err := client.R().Get("/health")
	if err != nil {
		return err
	}
	return printResponse(resp)
}

// printResponse pretty-prints the JSON body and surfaces non-2xx statuses as
// command failures.
func printResponse(resp *resty.Response) error {
	var pretty map[string]any
	if err := json.Unmarshal(resp.Body(), &pretty); err == nil {
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(out))
	} else {
		fmt.Println(string(resp.Body()))
	}

	if resp.IsError() {
		return fmt.Errorf("service returned %s", resp.Status())
	}
	return nil
}
