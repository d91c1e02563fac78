package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// DefaultBedrockModel is used when no model ID is configured.
const DefaultBedrockModel = "anthropic.claude-3-haiku-20240307-v1:0"

// ErrEmptyBedrockResponse is returned when Converse yields no text.
var ErrEmptyBedrockResponse = errors.New("bedrock returned no text")

// ConverseAPI is the subset of the Bedrock runtime client used for drafting.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Bedrock drafts sections through the Bedrock Converse API.
type Bedrock struct {
	api     ConverseAPI
	modelID string
}

// NewBedrock wraps an existing Converse client.
func NewBedrock(api ConverseAPI, modelID string) *Bedrock {
	if modelID == "" {
		modelID = DefaultBedrockModel
	}
	return &Bedrock{api: api, modelID: modelID}
}

// NewBedrockFromRegion loads AWS credentials from the environment chain.
func NewBedrockFromRegion(ctx context.Context, region, modelID string) (*Bedrock, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewBedrock(bedrockruntime.NewFromConfig(cfg), modelID), nil
}

func (b *Bedrock) Name() string {
	return "bedrock:" + b.modelID
}

func (b *Bedrock) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", ErrEmptyPrompt
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.modelID),
		Messages: []types.Message{
			{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: req.Prompt}},
			},
		},
	}
	if req.System != "" {
		input.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: req.System}}
	}
	inference := &types.InferenceConfiguration{Temperature: aws.Float32(req.Temperature)}
	if req.MaxTokens > 0 {
		inference.MaxTokens = aws.Int32(int32(req.MaxTokens))
	}
	input.InferenceConfig = inference

	out, err := b.api.Converse(ctx, input)
	if err != nil {
		return "", fmt.Errorf("bedrock converse: %w", err)
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", ErrEmptyBedrockResponse
	}

	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyBedrockResponse
	}
	return strings.TrimSpace(sb.String()), nil
}
