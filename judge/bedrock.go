package judge

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// bedrockInvoker adapts the Bedrock runtime client to the Invoker interface.
type bedrockInvoker struct {
	client *bedrockruntime.Client
}

func newBedrockInvoker(cfg Config) *bedrockInvoker {
	client := bedrockruntime.NewFromConfig(aws.Config{Region: cfg.Region}, func(o *bedrockruntime.Options) {
		if cfg.AccessKey != "" {
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		}
	})
	return &bedrockInvoker{client: client}
}

func (b *bedrockInvoker) Invoke(ctx context.Context, modelID string, body []byte) ([]byte, error) {
	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock invoke: %w", err)
	}
	return out.Body, nil
}
