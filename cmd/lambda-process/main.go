package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-process

import (
	"context"
	"encoding/json"
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

// handler processes the document named by the bill-received event detail.
func handler(ctx context.Context, event events.CloudWatchEvent) (response, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		return response{StatusCode: 500, Body: initErr.Error()}, initErr
	}

	outcome, err := app.Processor.ProcessEventDetail(ctx, event.Detail)
	if err != nil {
		log.Printf("process event: %v", err)
		return response{StatusCode: 500, Body: err.Error()}, err
	}

	body, marshalErr := json.Marshal(outcome)
	if marshalErr != nil {
		body = []byte(fmt.Sprintf("file_key=%s reminder_sent=%t", outcome.FileKey, outcome.ReminderSent))
	}
	return response{StatusCode: 200, Body: string(body)}, nil
}

func main() {
	lambda.Start(handler)
}
