package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
)

// TranscribeClient implements TranscriptionClient against AWS Transcribe.
type TranscribeClient struct {
	client *transcribe.Client
}

// NewTranscribeClient wraps an AWS Transcribe client.
func NewTranscribeClient(client *transcribe.Client) *TranscribeClient {
	return &TranscribeClient{client: client}
}

// StartJob submits a transcription job for the media at mediaURI.
// languageCode defaults to en-US when empty.
func (c *TranscribeClient) StartJob(ctx context.Context, jobName, languageCode, mediaURI string) (string, error) {
	if languageCode == "" {
		languageCode = "en-US"
	}
	_, err := c.client.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		LanguageCode:         types.LanguageCode(languageCode),
		Media: &types.Media{
			MediaFileUri: aws.String(mediaURI),
		},
	})
	if err != nil {
		return "", fmt.Errorf("start transcription job %s: %w", jobName, err)
	}
	return jobName, nil
}
