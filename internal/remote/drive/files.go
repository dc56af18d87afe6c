package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sandeepkv93/memoara/internal/auth"
)

const appDataFolder = "appDataFolder"

// Files is the slice of the Drive files API the backup needs.
type Files interface {
	Find(ctx context.Context, name string) (string, error)
	Create(ctx context.Context, name string, body []byte) (string, error)
	Update(ctx context.Context, id string, body []byte) (string, error)
	Download(ctx context.Context, id string) ([]byte, error)
	Remove(ctx context.Context, id string) error
}

// Opener builds a Files client acting as ident.
type Opener func(ctx context.Context, ident auth.Identity) (Files, error)

// GoogleOpener opens Drive clients from the identity's OAuth tokens. With a
// refresh token and client credentials the access token is refreshed as
// needed.
func GoogleOpener(clientID, clientSecret string) Opener {
	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gdrive.DriveAppdataScope},
	}
	return func(ctx context.Context, ident auth.Identity) (Files, error) {
		if ident.AccessToken == "" {
			return nil, fmt.Errorf("%w: no access token", auth.ErrUnauthorized)
		}
		token := &oauth2.Token{
			AccessToken:  ident.AccessToken,
			RefreshToken: ident.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       ident.ExpiresAt,
		}
		var src oauth2.TokenSource = oauth2.StaticTokenSource(token)
		if ident.RefreshToken != "" && clientID != "" {
			if token.Expiry.IsZero() {
				token.Expiry = time.Now()
			}
			src = config.TokenSource(ctx, token)
		}
		svc, err := gdrive.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, src)))
		if err != nil {
			return nil, fmt.Errorf("create drive service: %w", err)
		}
		return googleFiles{svc: svc}, nil
	}
}

type googleFiles struct {
	svc *gdrive.Service
}

func (g googleFiles) Find(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", quoteQuery(name), appDataFolder)
	list, err := g.svc.Files.List().Q(q).Spaces(appDataFolder).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", mapError(err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

// quoteQuery escapes a value for a single-quoted Drive query literal.
func quoteQuery(v string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
}

func (g googleFiles) Create(ctx context.Context, name string, body []byte) (string, error) {
	meta := &gdrive.File{Name: name, Parents: []string{appDataFolder}, MimeType: "application/json"}
	f, err := g.svc.Files.Create(meta).
		Media(bytes.NewReader(body), googleapi.ContentType("application/json")).
		Fields("id").Context(ctx).Do()
	if err != nil {
		return "", mapError(err)
	}
	return f.Id, nil
}

func (g googleFiles) Update(ctx context.Context, id string, body []byte) (string, error) {
	f, err := g.svc.Files.Update(id, &gdrive.File{}).
		Media(bytes.NewReader(body), googleapi.ContentType("application/json")).
		Fields("id").Context(ctx).Do()
	if err != nil {
		return "", mapError(err)
	}
	return f.Id, nil
}

func (g googleFiles) Download(ctx context.Context, id string) ([]byte, error) {
	resp, err := g.svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, mapError(err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (g googleFiles) Remove(ctx context.Context, id string) error {
	return mapError(g.svc.Files.Delete(id).Context(ctx).Do())
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden) {
		return fmt.Errorf("%w: %v", auth.ErrUnauthorized, err)
	}
	return err
}
