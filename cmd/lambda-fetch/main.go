package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-fetch

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"billtracker/internal/bootstrap"
	"billtracker/internal/shared/config"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

type response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

func initApp() {
	cfg := config.Load()
	built, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		initErr = err
		return
	}
	app = built
}

// handler runs one fetch pass per scheduled invocation. Each stored invoice
// is announced on the event bus for the process Lambda.
func handler(ctx context.Context, event events.CloudWatchEvent) (response, error) {
	_ = event
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		return response{StatusCode: 500, Body: initErr.Error()}, initErr
	}
	if app.Fetcher == nil {
		err := fmt.Errorf("mail credentials are not configured")
		return response{StatusCode: 500, Body: err.Error()}, err
	}

	result, err := app.Fetcher.Run(ctx)
	if err != nil {
		log.Printf("fetch run: %v", err)
		return response{StatusCode: 500, Body: err.Error()}, err
	}

	body := fmt.Sprintf("fetched=%d stored=%d published=%d failed=%d",
		result.Fetched, result.Stored, result.Published, result.Failed)
	return response{StatusCode: 200, Body: body}, nil
}

func main() {
	lambda.Start(handler)
}
