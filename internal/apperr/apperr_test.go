package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/JonMunkholm/appsize/internal/android"
	"github.com/JonMunkholm/appsize/internal/bundletool"
	"github.com/JonMunkholm/appsize/internal/policy"
)

func TestMap(t *testing.T) {
	_, argErr := policy.ParseBuildType(policy.IOS, "Instant")
	_, csvErr := android.ReadRows(strings.NewReader("SDK,ABI\n"))
	_, raggedErr := android.ReadRows(strings.NewReader(
		"SDK,ABI,SCREEN_DENSITY,LANGUAGE,TEXTURE_COMPRESSION_FORMAT,DEVICE_TIER,MIN,MAX\n21,x86\n"))
	_, bytesErr := android.ReadRows(strings.NewReader(
		"SDK,ABI,SCREEN_DENSITY,LANGUAGE,TEXTURE_COMPRESSION_FORMAT,DEVICE_TIER,MIN,MAX\n21,x86,MDPI,en,ETC1,0,1,x\n"))

	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{"nil error returns empty", nil, "", ""},
		{"argument error keeps its message", fmt.Errorf("evaluate: %w", argErr), "ARG001",
			`The 'build_type' argument only accepts the values "App" and "Clip"`},
		{"missing column", csvErr, "CSV001", "The size CSV is missing a required column"},
		{"ragged row", raggedErr, "CSV002", "A row of the size CSV has the wrong number of fields"},
		{"invalid bytes", bytesErr, "CSV003", "A size in the CSV is not a whole number of bytes"},
		{"download", fmt.Errorf("android: %w", bundletool.ErrDownload), "TOOL001", "bundletool could not be downloaded"},
		{"tool failed", fmt.Errorf("build apks: %w: bad keystore", bundletool.ErrToolFailed), "TOOL002", "bundletool failed to process the bundle"},
		{"java missing", errors.New(`exec: "java": executable file not found in $PATH`), "TOOL003", "Java is not installed or not on PATH"},
		{"cancelled", fmt.Errorf("query: %w", context.Canceled), "REQ001", "Request was cancelled"},
		{"deadline", context.DeadlineExceeded, "REQ002", "Request timed out"},
		{"run not found", errors.New("run not found: abc"), "RUN001", "Run not found"},
		{"body too large", errors.New("http: request body too large"), "RUN002", "The upload exceeds the maximum size"},
		{"connection refused", errors.New("dial tcp: connection refused"), "DB001", "Unable to connect to the history database"},
		{"unknown", errors.New("something exploded"), "ERR000", "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Map(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("Map().Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("Map().Message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	got := Format(errors.New("run not found"))
	want := "Run not found (Code: RUN001). The run may have expired; evaluate the report again"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
	if Format(nil) != "" {
		t.Errorf("Format(nil) = %q, want empty", Format(nil))
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true")
	}
	if !IsUserFacing(bundletool.ErrDownload) {
		t.Error("IsUserFacing(ErrDownload) = false")
	}
	if IsUserFacing(errors.New("boom")) {
		t.Error("IsUserFacing(boom) = true")
	}
}
