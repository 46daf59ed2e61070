package view

import (
	"image"

	"github.com/soocke/linm-bot-go/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

const (
	maxPreviewW = 480
	maxPreviewH = 270
)

// capturePreview shows the frames of the selected account.
type capturePreview struct {
	label *LabelWidget
	photo *Img // deleted before replacement so old pixel data is released
}

func newCapturePreview(row, span int) *capturePreview {
	photo := NewPhoto(Data(placeholder()))
	label := Label(Image(photo), Borderwidth(1), Relief("sunken"))
	Grid(label, Row(row), Column(0), Columnspan(span), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	return &capturePreview{label: label, photo: photo}
}

func (v *capturePreview) update(img image.Image) {
	if v == nil || v.label == nil || img == nil {
		return
	}
	v.replace(images.EncodePNG(images.ScaleToFit(img, maxPreviewW, maxPreviewH)))
}

func (v *capturePreview) reset() {
	if v != nil && v.label != nil {
		v.replace(placeholder())
	}
}

func (v *capturePreview) replace(png []byte) {
	if v.photo != nil {
		v.photo.Delete()
	}
	v.photo = NewPhoto(Data(png))
	v.label.Configure(Image(v.photo))
}

func placeholder() []byte {
	return images.EncodePNG(image.NewRGBA(image.Rect(0, 0, 240, 135)))
}
