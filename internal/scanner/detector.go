package scanner

import (
	"errors"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNoCode reports a frame without a decodable symbol. It is the common
// case and the loop swallows it silently.
var ErrNoCode = errors.New("no barcode in frame")

// Detection is a decoded symbol.
type Detection struct {
	Value  string
	Format string
}

// Detector decodes the first barcode found in a frame.
type Detector interface {
	Detect(img image.Image) (*Detection, error)
}

// ZXingDetector decodes the retail symbology set: EAN-13/EAN-8/UPC-A/UPC-E
// (via the combined UPC/EAN reader), Code 128, Code 39, Code 93, Codabar,
// ITF, and QR.
type ZXingDetector struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

func NewZXingDetector() *ZXingDetector {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	return &ZXingDetector{
		readers: []gozxing.Reader{
			qrcode.NewQRCodeReader(),
			oned.NewMultiFormatUPCEANReader(hints),
			oned.NewCode128Reader(),
			oned.NewCode39Reader(),
			oned.NewCode93Reader(),
			oned.NewCodaBarReader(),
			oned.NewITFReader(),
		},
		hints: hints,
	}
}

// Detect tries each reader against the frame and returns the first hit.
func (d *ZXingDetector) Detect(img image.Image) (*Detection, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, err
	}

	for _, reader := range d.readers {
		result, err := reader.Decode(bmp, d.hints)
		if err != nil {
			continue
		}
		return &Detection{
			Value:  result.GetText(),
			Format: result.GetBarcodeFormat().String(),
		}, nil
	}
	return nil, ErrNoCode
}
