// Package remotesync pushes the record table to a hosted repository.
package remotesync

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"transfer-tracking-service/internal/adapters/spreadsheet"
	"transfer-tracking-service/internal/domain"
	"transfer-tracking-service/internal/platform/obs"

	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://api.github.com"

// GitHubSync writes a workbook snapshot through the repository contents API.
//
// A push reads the current blob sha of the file (absent means create) and
// writes the new content against that sha. It is attempted once.
type GitHubSync struct {
	session *http.Client
	baseURL string
	owner   string
	repo    string
	branch  string
	path    string
	sheet   string
}

type GitHubConfig struct {
	// Repository as "owner/name".
	Repo    string
	Branch  string
	Path    string
	Token   string
	Sheet   string
	BaseURL string
}

func NewGitHubSync(cfg GitHubConfig) (*GitHubSync, error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(cfg.Repo), "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("github sync: repo %q must be owner/name", cfg.Repo)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("github sync: token is empty")
	}
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("github sync: path is empty")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	// The oauth2 transport sends the token as a bearer Authorization header.
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	session := oauth2.NewClient(context.Background(), ts)
	session.Timeout = 15 * time.Second

	return &GitHubSync{
		session: session,
		baseURL: baseURL,
		owner:   owner,
		repo:    repo,
		branch:  cfg.Branch,
		path:    strings.Trim(cfg.Path, "/"),
		sheet:   cfg.Sheet,
	}, nil
}

type contentResponse struct {
	SHA string `json:"sha"`
}

type putContentRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

// Push encodes records as a workbook and writes it to the configured path.
func (g *GitHubSync) Push(ctx context.Context, records []domain.Record, message string) (err error) {
	defer obs.Time(ctx, "github.Push")(&err)

	content, err := spreadsheet.Encode(records, g.sheet)
	if err != nil {
		return fmt.Errorf("github push: %w", err)
	}
	return g.PutFile(ctx, content, message)
}

// PutFile creates or replaces the file with content.
func (g *GitHubSync) PutFile(ctx context.Context, content []byte, message string) error {
	sha, err := g.currentSHA(ctx)
	if err != nil {
		return fmt.Errorf("github put file: read sha: %w", err)
	}

	payload, err := json.Marshal(putContentRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     sha,
		Branch:  g.branch,
	})
	if err != nil {
		return fmt.Errorf("github put file: marshal request: %w", err)
	}

	req, err := g.newRequest(ctx, http.MethodPut, g.contentsURL(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("github put file: %w", err)
	}
	resp, err := g.do(req)
	if err != nil {
		return fmt.Errorf("github put file %q: %w", g.path, err)
	}
	defer resp.Body.Close()

	return nil
}

// currentSHA returns the blob sha of the file, or "" when it does not exist.
func (g *GitHubSync) currentSHA(ctx context.Context) (string, error) {
	endpoint := g.contentsURL()
	if g.branch != "" {
		endpoint += "?ref=" + url.QueryEscape(g.branch)
	}

	req, err := g.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := g.do(req)
	if err != nil {
		var he *httpStatusError
		if errors.As(err, &he) && he.Code == http.StatusNotFound {
			return "", nil
		}
		return "", err
	}
	defer resp.Body.Close()

	var decoded contentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode contents response: %w", err)
	}
	return decoded.SHA, nil
}

func (g *GitHubSync) contentsURL() string {
	segments := strings.Split(g.path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf(
		"%s/repos/%s/%s/contents/%s",
		g.baseURL, url.PathEscape(g.owner), url.PathEscape(g.repo), strings.Join(segments, "/"),
	)
}
