package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// AWSProvider resolves secrets from AWS Secrets Manager. Secret values are
// expected to be JSON objects mapping credential names to strings.
type AWSProvider struct {
	client *secretsmanager.Client
}

// NewAWSProvider creates a Secrets Manager backed provider.
func NewAWSProvider(ctx context.Context, region string) (*AWSProvider, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &AWSProvider{client: secretsmanager.NewFromConfig(cfg)}, nil
}

// GetSecret fetches and decodes the named secret.
func (p *AWSProvider) GetSecret(ctx context.Context, name string) (map[string]string, error) {
	if name == "" {
		return nil, fmt.Errorf("secret name is required")
	}

	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("get secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", name)
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &values); err != nil {
		return nil, fmt.Errorf("decode secret %s: %w", name, err)
	}
	return values, nil
}

var _ Provider = (*AWSProvider)(nil)
