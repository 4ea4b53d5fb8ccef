package internal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DownloadFile fetches url into destPath with a bounded number of attempts.
// Transient HTTP failures are the one place this tool retries: a wheel
// download is large, resumable by re-request, and carries no local state.
func DownloadFile(ctx context.Context, url, destPath string, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}
	client := &http.Client{Timeout: 10 * time.Minute}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			Log.Warn().Err(lastErr).Int("attempt", i+1).Str("url", url).Msg("retrying download")
		}
		lastErr = downloadOnce(ctx, client, url, destPath)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("downloading %s after %d attempts: %w", url, attempts, lastErr)
}

func downloadOnce(ctx context.Context, client *http.Client, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(ExpandUserPath(destPath)), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), ExpandUserPath(destPath))
}

// InstallExtraWheel fetches the prebuilt wheel at wheelURL and applies it to
// env. Empty wheelURL means the step is not configured and is skipped.
func InstallExtraWheel(ctx context.Context, env *EnvHandle, wheelURL, cacheDir string) error {
	if strings.TrimSpace(wheelURL) == "" {
		return nil
	}
	name := wheelURL[strings.LastIndexByte(wheelURL, '/')+1:]
	if name == "" || !strings.HasSuffix(name, ".whl") {
		return WrapKind(ErrInstallFailure, nil, fmt.Sprintf("%s does not look like a wheel URL", wheelURL))
	}
	if err := os.MkdirAll(ExpandUserPath(cacheDir), 0o755); err != nil {
		return WrapKind(ErrInstallFailure, err, "creating wheel cache directory")
	}

	wheelPath := filepath.Join(ExpandUserPath(cacheDir), name)
	if _, err := os.Stat(wheelPath); os.IsNotExist(err) {
		log := WithStep("wheel")
		log.Info().Str("url", wheelURL).Msg("fetching prebuilt wheel")
		if err := DownloadFile(ctx, wheelURL, wheelPath, 3); err != nil {
			return WrapKind(ErrInstallFailure, err, "fetching prebuilt wheel")
		}
	}
	return ApplyDirectives(ctx, env, []PackageDirective{WheelDirective(wheelPath)})
}
