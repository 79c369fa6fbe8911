// Package transparency exposes intermediate extraction results to callers
// that want to inspect them. A Logger is asked whether it wants each key
// before the payload for that key is built.
package transparency

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/high-horse/fpextract/fault"
)

// Keys offered during extraction, in pipeline order.
const (
	DecodedImage = "decoded-image"
	RidgeField   = "ridge-field"
	Skeleton     = "skeleton"
	Minutiae     = "minutiae"
	Template     = "template"
)

const (
	MimeCBOR   = "application/cbor"
	MimeBinary = "application/octet-stream"
)

// Logger receives intermediate data.
type Logger interface {
	Accepts(key string) bool
	Accept(key, mime string, data []byte) error
}

type discard struct{}

func (discard) Accepts(string) bool                { return false }
func (discard) Accept(string, string, []byte) error { return nil }

// Discard accepts nothing.
var Discard Logger = discard{}

var encMode cbor.EncMode

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
}

// Offer CBOR-encodes the value returned by build and hands it to l under
// key. build only runs when l accepts the key. A nil l accepts nothing.
func Offer(l Logger, key string, build func() interface{}) error {
	if l == nil || !l.Accepts(key) {
		return nil
	}
	data, err := encMode.Marshal(build())
	if err != nil {
		return fault.New(fault.ErrEncoding, fault.StageTransparency, errors.Wrapf(err, "marshal %s", key))
	}
	return errors.Wrapf(l.Accept(key, MimeCBOR, data), "transparency %s", key)
}

// OfferBytes hands already serialized data to l under key.
func OfferBytes(l Logger, key, mime string, data []byte) error {
	if l == nil || !l.Accepts(key) {
		return nil
	}
	return errors.Wrapf(l.Accept(key, mime, data), "transparency %s", key)
}

// Record is one accepted payload.
type Record struct {
	Mime string
	Data []byte
}

// Collector keeps accepted payloads in memory, ordered by key. With no
// filter keys it accepts everything. It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	filter  map[string]bool
	records *treemap.Map
}

func NewCollector(keys ...string) *Collector {
	c := &Collector{records: treemap.NewWithStringComparator()}
	if len(keys) > 0 {
		c.filter = make(map[string]bool, len(keys))
		for _, k := range keys {
			c.filter[k] = true
		}
	}
	return c
}

func (c *Collector) Accepts(key string) bool {
	return c.filter == nil || c.filter[key]
}

func (c *Collector) Accept(key, mime string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records.Put(key, Record{Mime: mime, Data: append([]byte(nil), data...)})
	return nil
}

// Get returns the last payload accepted under key.
func (c *Collector) Get(key string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.records.Get(key)
	if !ok {
		return Record{}, false
	}
	return v.(Record), true
}

// Keys lists the collected keys in sorted order.
func (c *Collector) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, c.records.Size())
	for _, k := range c.records.Keys() {
		keys = append(keys, k.(string))
	}
	return keys
}

// Dir writes every payload to <path>/<key>.cbor or <path>/<key>.dat.
type Dir struct {
	path string
}

// NewDir creates path if needed.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create transparency dir %s", path)
	}
	return &Dir{path: path}, nil
}

func (d *Dir) Accepts(string) bool { return true }

func (d *Dir) Accept(key, mime string, data []byte) error {
	ext := ".dat"
	if mime == MimeCBOR {
		ext = ".cbor"
	}
	name := filepath.Join(d.path, key+ext)
	return errors.Wrapf(os.WriteFile(name, data, 0o644), "write %s", name)
}
