// Package cloud wraps the AWS services the backend talks to behind narrow
// interfaces so domain services can be tested without AWS.
package cloud

import "context"

// PresignedUpload is a short-lived URL a client can PUT a file to, plus the
// object key it will land under.
type PresignedUpload struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// UploadPresigner issues presigned upload URLs.
type UploadPresigner interface {
	PresignUpload(ctx context.Context, fileName, contentType string) (*PresignedUpload, error)
}

// TranscriptionClient starts speech-to-text jobs for uploaded recordings.
type TranscriptionClient interface {
	// StartJob submits a transcription job and returns its name.
	StartJob(ctx context.Context, jobName, languageCode, mediaURI string) (string, error)
}
