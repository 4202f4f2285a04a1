package docgen

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propkit/marketing-kit-api/internal/core"
	"github.com/propkit/marketing-kit-api/internal/domain/model"
)

func writeTestImage(t *testing.T, dir, name string) string {
	t.Helper()
	img := imaging.New(320, 240, color.NRGBA{R: 120, G: 160, B: 200, A: 255})
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestCapGrid(t *testing.T) {
	paths := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	capped := capGrid(paths)
	require.Len(t, capped, MaxGridImages)
	assert.Equal(t, paths[:MaxGridImages], capped, "order must be preserved")

	few := []string{"a", "b"}
	assert.Equal(t, few, capGrid(few))
}

func TestPDFRendererRender(t *testing.T) {
	dir := t.TempDir()

	var images []string
	for i := 0; i < 9; i++ {
		images = append(images, writeTestImage(t, dir, filepath.Base(dir)+string(rune('a'+i))+".jpg"))
	}

	out := filepath.Join(dir, "kit.pdf")
	r := NewPDFRenderer()
	err := r.Render(context.Background(), core.DocumentParams{
		Address: "123 Main St",
		Copy: model.ListingCopy{
			Description: "A lovely home with plenty of light.",
			Summary:     "Lovely and bright",
			Captions:    []string{"Just listed!", "Tour today"},
		},
		ImagePaths: images,
		OutPath:    out,
	})
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestPDFRendererRenderWithoutImages(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "kit.pdf")

	r := NewPDFRenderer()
	err := r.Render(context.Background(), core.DocumentParams{
		Address: "9 Oak Ave",
		Copy:    model.ListingCopy{Description: "No photos yet."},
		OutPath: out,
	})
	require.NoError(t, err)

	_, err = os.Stat(out)
	require.NoError(t, err)
}
