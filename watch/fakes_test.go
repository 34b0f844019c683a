package watch

import (
	"context"
	"os"

	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/savesync/savesync/watch/network"
)

type fakeBackend struct {
	url   string
	err   error
	calls []network.UploadParams
	// contents holds the uploaded file bodies, captured at upload time
	// because temporary archives are removed after the check.
	contents [][]byte
}

func (b *fakeBackend) Upload(ctx context.Context, params network.UploadParams, logger log.Logger) (string, error) {
	b.calls = append(b.calls, params)
	if data, err := os.ReadFile(params.FilePath); err == nil {
		b.contents = append(b.contents, data)
	}
	if b.err != nil {
		return "", b.err
	}
	return b.url, nil
}

type notification struct {
	fileName string
	url      string
	source   string
}

type fakeNotifier struct {
	err           error
	notifications []notification
}

func (n *fakeNotifier) Notify(fileName, url, source string) error {
	n.notifications = append(n.notifications, notification{fileName: fileName, url: url, source: source})
	return n.err
}
