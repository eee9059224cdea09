package table

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/tagviewer/pkg/buildinfo"
	"github.com/matzehuels/tagviewer/pkg/cache"
	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
	"github.com/matzehuels/tagviewer/pkg/httputil"
)

// IndexFile lists every tag of a data directory.
const IndexFile = "meta.csv"

// MaxCompare is the largest number of tags [LoadTags] loads at once.
const MaxCompare = 4

// TableFile returns the file name of a tag's rows.
func TableFile(id string) string { return "table_" + id + ".csv" }

// MetaFile returns the file name of a tag's description.
func MetaFile(id string) string { return "meta_" + id + ".csv" }

// Source reads data files by name.
type Source interface {
	// Read returns the content of a file. Missing files are reported with
	// the FILE_NOT_FOUND or NOT_FOUND code.
	Read(ctx context.Context, name string) ([]byte, error)

	// String identifies the source in logs and cache keys.
	String() string
}

// DirSource reads files from a local directory.
type DirSource struct {
	Dir string
}

// Read implements [Source].
func (s DirSource) Read(ctx context.Context, name string) ([]byte, error) {
	if err := tverrors.ValidatePath(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, tverrors.Wrap(tverrors.ErrCodeFileNotFound, err, "%s not found in %s", name, s.Dir)
	}
	if err != nil {
		return nil, tverrors.Wrap(tverrors.ErrCodeInternal, err, "read %s", name)
	}
	return data, nil
}

func (s DirSource) String() string { return "dir:" + s.Dir }

// RemoteSource reads files below a base URL. Responses are cached.
type RemoteSource struct {
	base    string
	client  *httputil.Client
	refresh bool
}

// NewRemoteSource returns a source for baseURL. A nil cache disables
// response caching.
func NewRemoteSource(baseURL string, c cache.Cache, ttl time.Duration) (*RemoteSource, error) {
	if err := tverrors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	return &RemoteSource{
		base:   strings.TrimRight(baseURL, "/"),
		client: httputil.NewClient(c, ttl, map[string]string{"User-Agent": buildinfo.UserAgent()}),
	}, nil
}

// SetHTTPClient replaces the underlying *http.Client.
func (s *RemoteSource) SetHTTPClient(h *http.Client) { s.client.SetHTTPClient(h) }

// SetRefresh makes subsequent reads bypass cached responses.
func (s *RemoteSource) SetRefresh(refresh bool) { s.refresh = refresh }

type refreshKey struct{}

// WithRefresh marks reads made with the returned context as bypassing cached
// responses. It lets one request refresh a source shared by many.
func WithRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshKey{}, true)
}

func refreshRequested(ctx context.Context) bool {
	v, _ := ctx.Value(refreshKey{}).(bool)
	return v
}

// Read implements [Source].
func (s *RemoteSource) Read(ctx context.Context, name string) ([]byte, error) {
	if err := tverrors.ValidatePath(name); err != nil {
		return nil, err
	}
	return s.client.Fetch(ctx, s.base+"/"+name, s.refresh || refreshRequested(ctx))
}

func (s *RemoteSource) String() string { return "url:" + s.base }

// NewSource picks a [RemoteSource] when remoteURL is set and a [DirSource]
// otherwise.
func NewSource(dir, remoteURL string, c cache.Cache, ttl time.Duration) (Source, error) {
	if remoteURL != "" {
		return NewRemoteSource(remoteURL, c, ttl)
	}
	if dir == "" {
		return nil, tverrors.New(tverrors.ErrCodeInvalidInput, "no data directory or remote URL configured")
	}
	return DirSource{Dir: dir}, nil
}

// Tag is one loaded tag.
type Tag struct {
	ID    string
	Table *Table
	Meta  *Table
}

// Descriptor returns the widget descriptor for the tag's rows with the
// description attached.
func (t *Tag) Descriptor(opts Options) Descriptor {
	d := opts.Descriptor(t.Table)
	d.Meta = MetaLines(t.Meta)
	return d
}

func notFound(err error) bool {
	return tverrors.Is(err, tverrors.ErrCodeFileNotFound) || tverrors.Is(err, tverrors.ErrCodeNotFound)
}

// LoadTag reads a tag's table and description concurrently. A tag without a
// description file loads with an empty description.
func LoadTag(ctx context.Context, src Source, id string) (*Tag, error) {
	if err := tverrors.ValidateTableName(id); err != nil {
		return nil, err
	}

	tag := &Tag{ID: id}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := src.Read(ctx, TableFile(id))
		if notFound(err) {
			return tverrors.Wrap(tverrors.ErrCodeNotFound, err, "tag %s not found", id)
		}
		if err != nil {
			return err
		}
		tag.Table, err = FromCSV(id, bytes.NewReader(data))
		return err
	})
	g.Go(func() error {
		data, err := src.Read(ctx, MetaFile(id))
		if notFound(err) {
			tag.Meta = &Table{Name: "meta_" + id}
			return nil
		}
		if err != nil {
			return err
		}
		tag.Meta, err = FromCSV("meta_"+id, bytes.NewReader(data))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tag, nil
}

// LoadTags loads up to [MaxCompare] tags side by side, in the order given.
// Duplicate ids are loaded once.
func LoadTags(ctx context.Context, src Source, ids []string) ([]*Tag, error) {
	var uniq []string
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" && !slices.Contains(uniq, id) {
			uniq = append(uniq, id)
		}
	}
	if len(uniq) == 0 {
		return nil, tverrors.New(tverrors.ErrCodeInvalidInput, "no tag ids given")
	}
	if len(uniq) > MaxCompare {
		return nil, tverrors.New(tverrors.ErrCodeInvalidInput, "at most %d tags can be compared, got %d", MaxCompare, len(uniq))
	}

	tags := make([]*Tag, len(uniq))
	g, ctx := errgroup.WithContext(ctx)
	for i, id := range uniq {
		g.Go(func() error {
			t, err := LoadTag(ctx, src, id)
			tags[i] = t
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tags, nil
}

// ListTags reads the tag index. The first column holds the tag id.
func ListTags(ctx context.Context, src Source) (*Table, error) {
	data, err := src.Read(ctx, IndexFile)
	if err != nil {
		return nil, err
	}
	return FromCSV("meta", bytes.NewReader(data))
}

// TagIDs returns the non-empty first-column values of an index table.
func TagIDs(index *Table) []string {
	if index == nil || len(index.Columns) == 0 {
		return nil
	}
	field := index.Columns[0].Field
	var ids []string
	for _, row := range index.Rows {
		if id := strings.TrimSpace(row[field]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
