package layout

// This file defines unit helpers between layout pixels, points and millimeters.
//
// Layout works in device-independent pixels. The canvas surface treats one canvas unit as
// one pixel and rasterizes at 1 dot per unit; the PDF print-out maps pixels to paper at 96 dpi.

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm

	PxPerInch = 96.0
	MmPerInch = 25.4
)

// PxToMM converts pixels to millimeters at 96 dpi.
func PxToMM(px float64) float64 { return px * MmPerInch / PxPerInch }

// MMToPx converts millimeters to pixels at 96 dpi.
func MMToPx(mm float64) float64 { return mm * PxPerInch / MmPerInch }

// FacePoints 返回在“1 画布单位 = 1px”约定下，使字体 em 等于 px 个单位所需的 pt 字号。
// canvas 以 pt 创建字体面、以 mm（即画布单位）返回度量，所以这里做一次 pt→mm 的逆换算。
func FacePoints(px float64) float64 { return px * MmToPt }
