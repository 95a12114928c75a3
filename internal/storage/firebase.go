// Package storage uploads document files to Firebase Storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const (
	defaultDownloadURL = "https://firebasestorage.googleapis.com/v0"

	// downloadTokensKey is the object metadata Firebase reads to serve
	// tokenised download URLs.
	downloadTokensKey = "firebaseStorageDownloadTokens"
)

// FirebaseStore uploads objects to a Firebase bucket and returns token URLs.
type FirebaseStore struct {
	client       *gcs.Client
	bucketName   string
	downloadBase string
}

// NewFirebaseStore authenticates with a service-account file, or with the
// application default credentials when the path is empty.
func NewFirebaseStore(ctx context.Context, bucket, credentialsFile string) (*FirebaseStore, error) {
	var creds *google.Credentials
	var err error
	if credentialsFile != "" {
		data, readErr := os.ReadFile(credentialsFile)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read firebase credentials: %w", readErr)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, gcs.ScopeReadWrite)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, gcs.ScopeReadWrite)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load firebase credentials: %w", err)
	}
	client, err := gcs.NewClient(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return newFirebaseStore(client, bucket, defaultDownloadURL), nil
}

func newFirebaseStore(client *gcs.Client, bucket, downloadBase string) *FirebaseStore {
	return &FirebaseStore{
		client:       client,
		bucketName:   bucket,
		downloadBase: strings.TrimRight(downloadBase, "/"),
	}
}

// ObjectPath is documents/{courseId|personal}/{unixMillis}_{title}.
func ObjectPath(courseID *int64, title string, now time.Time) string {
	scope := "personal"
	if courseID != nil {
		scope = strconv.FormatInt(*courseID, 10)
	}
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(title))
	return fmt.Sprintf("documents/%s/%d_%s", scope, now.UnixMilli(), name)
}

// Upload stores body under objectPath and returns its download URL.
func (s *FirebaseStore) Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	token := uuid.NewString()

	// Cancelling the context is how a half-written object is abandoned.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucketName).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{downloadTokensKey: token}
	if _, err := io.Copy(w, body); err != nil {
		cancel()
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}

	return s.DownloadURL(objectPath, token), nil
}

// DownloadURL builds the tokenised URL Firebase serves the object under.
func (s *FirebaseStore) DownloadURL(objectPath, token string) string {
	return fmt.Sprintf("%s/b/%s/o/%s?alt=media&token=%s",
		s.downloadBase, url.PathEscape(s.bucketName), url.PathEscape(objectPath), url.QueryEscape(token))
}

// Close releases the storage client.
func (s *FirebaseStore) Close() error {
	return s.client.Close()
}
