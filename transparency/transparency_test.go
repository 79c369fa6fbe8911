package transparency

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/high-horse/fpextract/enhance"
	"github.com/high-horse/fpextract/fault"
	"github.com/high-horse/fpextract/imaging"
	"github.com/high-horse/fpextract/minutiae"
)

type failing struct{}

func (failing) Accepts(string) bool { return true }
func (failing) Accept(string, string, []byte) error {
	return errors.New("disk full")
}

func TestOfferSkipsUnwantedKeys(t *testing.T) {
	built := false
	build := func() interface{} { built = true; return 1 }

	require.NoError(t, Offer(Discard, Skeleton, build))
	require.NoError(t, Offer(nil, Skeleton, build))
	require.NoError(t, Offer(NewCollector(Minutiae), Skeleton, build))
	assert.False(t, built)
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	require.NoError(t, Offer(c, Skeleton, func() interface{} { return map[string]int{"a": 1} }))
	require.NoError(t, OfferBytes(c, Template, MimeBinary, []byte{1, 2, 3}))
	require.NoError(t, OfferBytes(c, DecodedImage, MimeBinary, []byte{9}))

	assert.Equal(t, []string{DecodedImage, Skeleton, Template}, c.Keys())

	r, ok := c.Get(Template)
	require.True(t, ok)
	assert.Equal(t, MimeBinary, r.Mime)
	assert.Equal(t, []byte{1, 2, 3}, r.Data)

	r, ok = c.Get(Skeleton)
	require.True(t, ok)
	assert.Equal(t, MimeCBOR, r.Mime)
	var back map[string]int
	require.NoError(t, cbor.Unmarshal(r.Data, &back))
	assert.Equal(t, 1, back["a"])

	_, ok = c.Get(RidgeField)
	assert.False(t, ok)
}

func TestAcceptFailureKeepsCause(t *testing.T) {
	err := OfferBytes(failing{}, Template, MimeBinary, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transparency template")
	assert.Contains(t, err.Error(), "disk full")

	err = Offer(failing{}, Minutiae, func() interface{} { return nil })
	assert.Contains(t, err.Error(), "transparency minutiae")
}

func TestOfferReportsMarshalFailure(t *testing.T) {
	err := Offer(NewCollector(), Minutiae, func() interface{} { return make(chan int) })
	assert.True(t, errors.Is(err, fault.ErrEncoding), "%v", err)
	assert.Equal(t, fault.StageTransparency, fault.StageOf(err))
}

func TestDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	d, err := NewDir(path)
	require.NoError(t, err)

	require.NoError(t, OfferBytes(d, Template, MimeBinary, []byte("tpl")))
	require.NoError(t, Offer(d, Minutiae, func() interface{} { return []int{1} }))

	data, err := os.ReadFile(filepath.Join(path, "template.dat"))
	require.NoError(t, err)
	assert.Equal(t, "tpl", string(data))
	assert.FileExists(t, filepath.Join(path, "minutiae.cbor"))
}

func TestSnapshots(t *testing.T) {
	g, err := imaging.NewPixelGrid(3, 2, 500, []float64{0, 0.5, 1, 1, 1, 0})
	require.NoError(t, err)
	img := SnapshotImage(g)
	assert.Equal(t, []byte{0, 128, 255, 255, 255, 0}, img.Pixels)

	s := enhance.NewSkeleton(3, 3, 500)
	s.Ridge[0], s.Ridge[8] = true, true
	sk := SnapshotSkeleton(s)
	assert.Equal(t, []byte{0x80, 0x80}, sk.Ridge)
	assert.Equal(t, []byte{0xff, 0x80}, sk.Mask)

	ms := SnapshotMinutiae([]minutiae.Minutia{{X: 1, Y: 2, Direction: 3, Type: minutiae.Bifurcation, Quality: 0.5}})
	assert.Equal(t, []MinutiaSnapshot{{X: 1, Y: 2, Direction: 3, Type: "bifurcation", Quality: 0.5}}, ms)
}
