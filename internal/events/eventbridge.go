package events

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
)

// Publisher announces a stored invoice to downstream processing.
type Publisher interface {
	PublishBillReceived(ctx context.Context, fileKey string) error
}

// EventBridgePublisher implements Publisher over an EventBridge bus.
type EventBridgePublisher struct {
	client     *eventbridge.Client
	busName    string
	source     string
	detailType string
}

// NewEventBridgePublisher creates a publisher for the given bus.
func NewEventBridgePublisher(ctx context.Context, region, busName, source, detailType string) (*EventBridgePublisher, error) {
	if busName == "" {
		return nil, fmt.Errorf("event bus name is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &EventBridgePublisher{
		client:     eventbridge.NewFromConfig(cfg),
		busName:    busName,
		source:     source,
		detailType: detailType,
	}, nil
}

// PublishBillReceived puts one event with the stored file key as detail.
func (p *EventBridgePublisher) PublishBillReceived(ctx context.Context, fileKey string) error {
	detail, err := EncodeDetail(Detail{FileKey: fileKey})
	if err != nil {
		return fmt.Errorf("encode detail: %w", err)
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebtypes.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.busName),
				Source:       aws.String(p.source),
				DetailType:   aws.String(p.detailType),
				Detail:       aws.String(string(detail)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put events bus=%s key=%s: %w", p.busName, fileKey, err)
	}
	if out.FailedEntryCount > 0 {
		for _, entry := range out.Entries {
			if entry.ErrorCode != nil {
				return fmt.Errorf("put events bus=%s key=%s: %s: %s",
					p.busName, fileKey, aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
			}
		}
		return fmt.Errorf("put events bus=%s key=%s: %d entries failed", p.busName, fileKey, out.FailedEntryCount)
	}
	return nil
}

var _ Publisher = (*EventBridgePublisher)(nil)
