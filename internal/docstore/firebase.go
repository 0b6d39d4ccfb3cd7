package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"firebase.google.com/go/v4/errorutils"
	"google.golang.org/api/option"
)

// FirebaseConfig configures the Realtime Database backend.
type FirebaseConfig struct {
	// URL is https://<project>.firebaseio.com, or http://host:port?ns=<namespace> for the
	// emulator.
	URL       string
	ProjectID string
	// Tokens may be nil when the database rules allow unauthenticated access.
	Tokens  *TokenCache
	Timeout time.Duration
}

// FirebaseStore keeps the user tree in the Firebase Realtime Database.
type FirebaseStore struct {
	client  *db.Client
	tokens  *TokenCache
	timeout time.Duration
}

// NewFirebaseStore builds a store on the Firebase Admin SDK database client.
func NewFirebaseStore(ctx context.Context, cfg FirebaseConfig) (*FirebaseStore, error) {
	var opts []option.ClientOption
	switch {
	case cfg.Tokens != nil:
		opts = append(opts, option.WithTokenSource(cfg.Tokens.TokenSource()))
	case strings.HasPrefix(cfg.URL, "https://"):
		opts = append(opts, option.WithoutAuthentication())
	}

	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = "brift"
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: cfg.URL, ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase database: %w", err)
	}
	return &FirebaseStore{client: client, tokens: cfg.Tokens, timeout: cfg.Timeout}, nil
}

func (s *FirebaseStore) Get(ctx context.Context, path string) (any, error) {
	ref, err := s.ref(path)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out any
	if err := ref.Get(ctx, &out); err != nil {
		return nil, s.wrap("get", path, err)
	}
	if isEmptyValue(out) {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *FirebaseStore) Set(ctx context.Context, path string, value any) error {
	ref, err := s.ref(path)
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.wrap("set", path, ref.Set(ctx, value))
}

// Update sends one PATCH; slash-separated keys write nested locations.
func (s *FirebaseStore) Update(ctx context.Context, path string, fields map[string]any) error {
	if err := validateFields(fields); err != nil {
		return err
	}
	ref, err := s.ref(path)
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.wrap("update", path, ref.Update(ctx, fields))
}

// Delete succeeds for missing paths.
func (s *FirebaseStore) Delete(ctx context.Context, path string) error {
	ref, err := s.ref(path)
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.wrap("delete", path, ref.Delete(ctx))
}

// FindByField scans nested collections client side. Only the top-level users node is
// queried with orderBy/equalTo, which needs ".indexOn": ["profile/email", "profile/phone"]
// in the database rules.
func (s *FirebaseStore) FindByField(ctx context.Context, collectionPath, fieldPath string, value any) (map[string]any, error) {
	collSegs, err := SplitPath(collectionPath)
	if err != nil {
		return nil, err
	}
	fieldSegs, err := SplitPath(fieldPath)
	if err != nil {
		return nil, err
	}

	if len(collSegs) > 1 {
		want, err := Encode(value)
		if err != nil {
			return nil, err
		}
		node, err := s.Get(ctx, collectionPath)
		if errors.Is(err, ErrNotFound) {
			return map[string]any{}, nil
		}
		if err != nil {
			return nil, err
		}
		return matchChildren(node, fieldSegs, want)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var out map[string]any
	q := s.client.NewRef(collSegs[0]).OrderByChild(strings.Join(fieldSegs, "/")).EqualTo(value)
	if err := q.Get(ctx, &out); err != nil {
		return nil, s.wrap("query", collectionPath, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func (s *FirebaseStore) ref(path string) (*db.Ref, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	return s.client.NewRef(strings.Join(segs, "/")), nil
}

func (s *FirebaseStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *FirebaseStore) wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if s.tokens != nil && errorutils.IsUnauthenticated(err) {
		s.tokens.Invalidate()
	}
	return fmt.Errorf("docstore: %s %s: %w", op, path, err)
}
