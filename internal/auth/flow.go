package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/oauth2"
)

// DefaultFlowTimeout bounds how long the flow waits for the browser.
const DefaultFlowTimeout = 5 * time.Minute

const callbackPath = "/callback"

// LocalServerFlow runs the OAuth authorization-code flow for installed apps:
// it listens on a loopback port, opens the consent page in the browser and
// exchanges the returned code.
type LocalServerFlow struct {
	// ProviderName is shown to the user, e.g. "Google".
	ProviderName string
	// Port to listen on; 0 picks a free one.
	Port int
	// Extra parameters for the consent URL.
	AuthOptions []oauth2.AuthCodeOption
	Timeout     time.Duration
	// Out receives the instructions; defaults to stdout.
	Out io.Writer
	// OpenBrowser defaults to the platform opener.
	OpenBrowser func(url string) error
}

// Token implements AuthorizeFunc.
func (f *LocalServerFlow) Token(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	out := f.Out
	if out == nil {
		out = os.Stdout
	}
	open := f.OpenBrowser
	if open == nil {
		open = openBrowser
	}
	timeout := f.Timeout
	if timeout == 0 {
		timeout = DefaultFlowTimeout
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", f.Port))
	if err != nil {
		return nil, fmt.Errorf("listen for oauth callback: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	// Copy so the caller's config keeps its own redirect URL.
	cfg := *config
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d%s", port, callbackPath)

	state, err := randomState()
	if err != nil {
		listener.Close()
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "Authorization failed: state mismatch", http.StatusBadRequest)
			sendErr(errChan, errors.New("authorization failed: state mismatch"))
			return
		}
		code := q.Get("code")
		if code == "" {
			errMsg := q.Get("error")
			http.Error(w, "Authorization failed: "+errMsg, http.StatusBadRequest)
			sendErr(errChan, fmt.Errorf("authorization failed: %s", errMsg))
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, successPage)

		select {
		case codeChan <- code:
		default:
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != http.ErrServerClosed {
			sendErr(errChan, err)
		}
	}()
	defer server.Shutdown(context.Background())

	opts := append([]oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}, f.AuthOptions...)
	authURL := cfg.AuthCodeURL(state, opts...)

	fmt.Fprintf(out, "🔐 Opening browser for %s authorization...\n\n", f.ProviderName)
	if err := open(authURL); err != nil {
		fmt.Fprintln(out, "⚠️  Couldn't open browser automatically.")
		fmt.Fprintln(out, "   Please open this URL manually:")
		fmt.Fprintln(out, authURL)
	}
	fmt.Fprintln(out, "⏳ Waiting for authorization...")

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout waiting for authorization")
	}

	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return tok, nil
}

func sendErr(errChan chan<- error, err error) {
	select {
	case errChan <- err:
	default:
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform")
	}

	return cmd.Start()
}

const successPage = `<!DOCTYPE html>
<html>
<head>
	<title>Authorization Successful</title>
	<style>
		body { font-family: -apple-system, sans-serif; display: flex;
		       justify-content: center; align-items: center; height: 100vh;
		       margin: 0; background: #1a1a1a; color: #fff; }
		.card { background: #2d2d2d; padding: 40px; border-radius: 12px;
		        box-shadow: 0 2px 10px rgba(0,0,0,0.3); text-align: center; }
		h1 { color: #4ade80; margin-bottom: 10px; }
		p { color: #a1a1aa; }
	</style>
</head>
<body>
	<div class="card">
		<h1>Authorization Successful</h1>
		<p>You can close this window and return to the terminal.</p>
	</div>
</body>
</html>
`
