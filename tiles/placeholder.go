package tiles

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PlaceholderTileProvider renders labeled blank tiles locally. Used for
// offline development and as the fallback half of the combined provider.
type PlaceholderTileProvider struct{}

func NewPlaceholderTileProvider() *PlaceholderTileProvider {
	return &PlaceholderTileProvider{}
}

func (p *PlaceholderTileProvider) GetTile(tile Tile) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))

	bg := color.RGBA{226, 232, 240, 255}
	draw.Draw(img, img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)

	drawTileLabel(img, fmt.Sprintf("%d/%d/%d", tile.Z, tile.X, tile.Y))

	border := color.RGBA{100, 100, 100, 255}
	edges := []image.Rectangle{
		image.Rect(0, 0, TileSize, 1),
		image.Rect(0, TileSize-1, TileSize, TileSize),
		image.Rect(0, 0, 1, TileSize),
		image.Rect(TileSize-1, 0, TileSize, TileSize),
	}
	for _, rect := range edges {
		draw.Draw(img, rect, &image.Uniform{border}, image.Point{}, draw.Src)
	}

	return img, nil
}

func drawTileLabel(img *image.RGBA, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{51, 65, 85, 255}),
		Face: face,
	}

	textWidth := d.MeasureString(text).Round()
	textHeight := face.Metrics().Height.Round()

	padding := 10
	bgRect := image.Rect(
		(TileSize-textWidth)/2-padding,
		120-textHeight/2-padding,
		(TileSize+textWidth)/2+padding,
		120+textHeight/2+padding,
	)
	draw.Draw(img, bgRect, &image.Uniform{color.RGBA{255, 255, 255, 220}}, image.Point{}, draw.Over)

	d.Dot = fixed.Point26_6{
		X: fixed.I((TileSize - textWidth) / 2),
		Y: fixed.I(120 + textHeight/2),
	}
	d.DrawString(text)
}
