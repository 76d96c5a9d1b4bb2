package s3

import (
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "screenshots/u/b/0_a.png", want: "screenshots/u/b/0_a.png"},
		{name: "simple prefix", prefix: "archive", key: "screenshots/u/b/0_a.png", want: "archive/screenshots/u/b/0_a.png"},
		{name: "prefix trailing slash", prefix: "archive/", key: "screenshots/u/b/0_a.png", want: "archive/screenshots/u/b/0_a.png"},
		{name: "prefix and key slashes", prefix: "/archive/", key: "/screenshots/u/b/0_a.png", want: "archive/screenshots/u/b/0_a.png"},
		{name: "empty key", prefix: "archive", key: "", want: "archive"},
		{name: "nested prefix", prefix: "archive/codm", key: "screenshots/u/b/0_a.png", want: "archive/codm/screenshots/u/b/0_a.png"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestEncryptSelectsServerSideEncryption(t *testing.T) {
	t.Parallel()

	plain := &Store{}
	in := &s3.PutObjectInput{}
	plain.encrypt(in)
	if in.ServerSideEncryption != s3types.ServerSideEncryptionAes256 || in.SSEKMSKeyId != nil {
		t.Fatalf("expected AES256 without key, got %v %v", in.ServerSideEncryption, in.SSEKMSKeyId)
	}

	kms := &Store{kmsKeyID: "alias/codm"}
	in = &s3.PutObjectInput{}
	kms.encrypt(in)
	if in.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms {
		t.Fatalf("expected aws:kms, got %v", in.ServerSideEncryption)
	}
	if in.SSEKMSKeyId == nil || *in.SSEKMSKeyId != "alias/codm" {
		t.Fatalf("unexpected kms key id %v", in.SSEKMSKeyId)
	}
}

func TestCountingReader(t *testing.T) {
	t.Parallel()

	r := &countingReader{r: strings.NewReader("screenshot-bytes")}
	if _, err := io.Copy(io.Discard, r); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if r.n != int64(len("screenshot-bytes")) {
		t.Fatalf("counted %d bytes", r.n)
	}
}
