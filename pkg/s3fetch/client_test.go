package s3fetch

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	objects map[string]string
	gotKeys []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	name := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.gotKeys = append(f.gotKeys, name)
	body, ok := f.objects[name]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{"s3://bucket/key", "bucket", "key", false},
		{"s3://bucket/path/to/extract.csv.gz", "bucket", "path/to/extract.csv.gz", false},
		{"s3://bucket", "bucket", "", false},
		{"s3://bucket/", "bucket", "", false},
		{"s3://", "", "", true},
		{"http://bucket/key", "", "", true},
		{"/local/path", "", "", true},
	}

	for _, tt := range tests {
		bucket, key, err := ParseS3URI(tt.uri)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseS3URI(%q) err = %v, wantErr %v", tt.uri, err, tt.wantErr)
			continue
		}
		if bucket != tt.wantBucket || key != tt.wantKey {
			t.Errorf("ParseS3URI(%q) = (%q, %q), want (%q, %q)", tt.uri, bucket, key, tt.wantBucket, tt.wantKey)
		}
	}
}

func TestIsS3URI(t *testing.T) {
	if !IsS3URI("s3://b/k") {
		t.Error("IsS3URI(s3://b/k) = false")
	}
	if IsS3URI(`C:\extracts\a.csv`) {
		t.Error("IsS3URI on a local path = true")
	}
}

func TestClientOpen(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"inv/2025/srv1.csv": "DirectoryName|Length\n"}}
	c := NewClientWithAPI(fake)

	rc, err := c.Open(context.Background(), "s3://inv/2025/srv1.csv")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "DirectoryName|Length\n" {
		t.Errorf("body = %q", data)
	}
	if len(fake.gotKeys) != 1 || fake.gotKeys[0] != "inv/2025/srv1.csv" {
		t.Errorf("requested keys = %v", fake.gotKeys)
	}
}

func TestClientOpen_Errors(t *testing.T) {
	c := NewClientWithAPI(&fakeS3{objects: map[string]string{}})

	if _, err := c.Open(context.Background(), "s3://inv"); err == nil {
		t.Error("expected error for URI without key")
	}
	if _, err := c.Open(context.Background(), "not-a-uri"); err == nil {
		t.Error("expected error for non-S3 URI")
	}
	_, err := c.Open(context.Background(), "s3://inv/missing.csv")
	if err == nil || !strings.Contains(err.Error(), "s3://inv/missing.csv") {
		t.Errorf("err = %v, want wrapped error naming the object", err)
	}
}
