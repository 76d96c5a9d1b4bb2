package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore keeps collections in Cloud Firestore, one document per record.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore connects with a service account built from the given
// fields. When both email and key are empty, Application Default Credentials
// are used instead.
func NewFirestoreStore(ctx context.Context, projectID, clientEmail, privateKey string) (*FirestoreStore, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required")
	}

	var opts []option.ClientOption
	if clientEmail != "" || privateKey != "" {
		var missing []string
		if clientEmail == "" {
			missing = append(missing, "FIREBASE_CLIENT_EMAIL")
		}
		if privateKey == "" {
			missing = append(missing, "FIREBASE_PRIVATE_KEY")
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("missing firebase credentials: %s", strings.Join(missing, ", "))
		}
		creds, err := serviceAccountJSON(projectID, clientEmail, privateKey)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

// serviceAccountJSON renders credentials the way a downloaded key file looks.
// Keys pasted into env vars often carry literal "\n" sequences.
func serviceAccountJSON(projectID, clientEmail, privateKey string) ([]byte, error) {
	return json.Marshal(map[string]string{
		"type":         "service_account",
		"project_id":   projectID,
		"client_email": clientEmail,
		"private_key":  strings.ReplaceAll(privateKey, `\n`, "\n"),
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
}

func (s *FirestoreStore) Collection(name string) Collection {
	return &firestoreCollection{ref: s.client.Collection(name)}
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

type firestoreDoc struct {
	Data      map[string]any `firestore:"data"`
	UserID    *string        `firestore:"userId"`
	Type      string         `firestore:"type"`
	CreatedAt time.Time      `firestore:"createdAt"`
}

type firestoreCollection struct {
	ref *firestore.CollectionRef
}

func (c *firestoreCollection) Get(ctx context.Context, id string) (Record, error) {
	snap, err := c.ref.Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return decodeSnapshot(snap)
}

func (c *firestoreCollection) Set(ctx context.Context, rec Record) error {
	doc, err := toFirestoreDoc(rec)
	if err != nil {
		return err
	}
	_, err = c.ref.Doc(rec.ID).Set(ctx, doc)
	return err
}

func (c *firestoreCollection) Delete(ctx context.Context, id string) error {
	_, err := c.ref.Doc(id).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

func (c *firestoreCollection) ListByUser(ctx context.Context, userID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	iter := c.ref.Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	out := make([]Record, 0)
	err := drain(iter, func(rec Record) error {
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *firestoreCollection) Each(ctx context.Context, fn func(Record) error) error {
	iter := c.ref.Documents(ctx)
	defer iter.Stop()
	return drain(iter, fn)
}

func drain(iter *firestore.DocumentIterator, fn func(Record) error) error {
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return err
		}
		rec, err := decodeSnapshot(snap)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

func decodeSnapshot(snap *firestore.DocumentSnapshot) (Record, error) {
	var doc firestoreDoc
	if err := snap.DataTo(&doc); err != nil {
		return Record{}, fmt.Errorf("decode %s: %w", snap.Ref.ID, err)
	}
	return fromFirestoreDoc(snap.Ref.ID, doc)
}

// toFirestoreDoc stores the analysis as a nested map so it stays queryable in
// the console, not as an opaque string.
func toFirestoreDoc(rec Record) (firestoreDoc, error) {
	var data map[string]any
	if err := json.Unmarshal(rec.Data, &data); err != nil {
		return firestoreDoc{}, fmt.Errorf("encode %s: %w", rec.ID, err)
	}
	if data == nil {
		return firestoreDoc{}, fmt.Errorf("encode %s: data must be a JSON object", rec.ID)
	}
	return firestoreDoc{
		Data:      data,
		UserID:    rec.UserID,
		Type:      rec.Type,
		CreatedAt: rec.CreatedAt.UTC(),
	}, nil
}

func fromFirestoreDoc(id string, doc firestoreDoc) (Record, error) {
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return Record{}, fmt.Errorf("decode %s: %w", id, err)
	}
	return Record{
		ID:        id,
		Data:      data,
		UserID:    doc.UserID,
		Type:      doc.Type,
		CreatedAt: doc.CreatedAt.UTC(),
	}, nil
}

var (
	_ Store      = (*FirestoreStore)(nil)
	_ Collection = (*firestoreCollection)(nil)
)
