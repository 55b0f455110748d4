//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"

	"facecam/internal/domain/entity"
	"facecam/internal/domain/port"
)

const (
	ssdInputSide      = 300
	landmarkInputSide = 112
	landmarkPoints    = 68
	expressionSide    = 64
)

// ferplusOrder порядок выходов FER+, contempt в метки не входит
var ferplusOrder = [...]entity.Expression{
	entity.Neutral, entity.Happy, entity.Surprised, entity.Sad,
	entity.Angry, entity.Disgusted, entity.Fearful, entity.ExpressionUnset,
}

// DNNDetector детектор лиц на OpenCV DNN: SSD для рамок,
// отдельные сети для 68 точек и эмоций.
type DNNDetector struct {
	ModelsDir string
	Artifacts []entity.ModelArtifact

	// gocv.Net не потокобезопасен, перекрывающиеся тики идут по очереди
	mu   sync.Mutex
	nets map[string]gocv.Net
}

// NewDNNDetector создаёт детектор, модели загружаются отдельно через LoadModels
func NewDNNDetector(modelsDir string) *DNNDetector {
	return &DNNDetector{
		ModelsDir: modelsDir,
		Artifacts: entity.DefaultModelArtifacts(),
		nets:      make(map[string]gocv.Net),
	}
}

// LoadModels читает все четыре сети. Ошибка любой из них останавливает загрузку.
func (d *DNNDetector) LoadModels(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, a := range d.Artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := d.nets[a.Name]; ok {
			continue
		}

		model := filepath.Join(d.ModelsDir, a.File)
		if _, err := os.Stat(model); err != nil {
			return fmt.Errorf("model %s: %w", a.Name, err)
		}
		config := ""
		if a.Config != "" {
			config = filepath.Join(d.ModelsDir, a.Config)
		}

		net := gocv.ReadNet(model, config)
		if net.Empty() {
			return fmt.Errorf("model %s: failed to read %s", a.Name, model)
		}
		d.nets[a.Name] = net
	}
	return nil
}

// Close освобождает сети
func (d *DNNDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for name, net := range d.nets {
		if err := net.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(d.nets, name)
	}
	return errors.Join(errs...)
}

// Detect находит лица и по запросу добавляет точки и эмоции
func (d *DNNDetector) Detect(ctx context.Context, frame image.Image, opts entity.DetectorOptions) ([]entity.Detection, error) {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Пока тик ждал очереди, опрос мог быть остановлен.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	faceNet, ok := d.nets[entity.ModelFaceDetector]
	if !ok {
		return nil, errors.New("face detector model is not loaded")
	}

	boxes := detectFaces(&faceNet, mat, opts)
	detections := make([]entity.Detection, 0, len(boxes))
	for _, b := range boxes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		det := entity.Detection{Box: b.box, Score: b.score}
		rect := b.box.Rect().Intersect(image.Rect(0, 0, mat.Cols(), mat.Rows()))
		if rect.Empty() {
			continue
		}

		crop := mat.Region(rect)
		if opts.WithLandmarks {
			if net, ok := d.nets[entity.ModelFaceLandmark68]; ok {
				det.Landmarks = detectLandmarks(&net, crop, b.box)
			}
		}
		if opts.WithExpressions {
			if net, ok := d.nets[entity.ModelFaceExpression]; ok {
				det.Expressions = classifyExpressions(&net, crop)
			}
		}
		crop.Close()

		detections = append(detections, det)
	}
	return detections, nil
}

type scoredBox struct {
	box   entity.Box
	score float64
}

func detectFaces(net *gocv.Net, mat gocv.Mat, opts entity.DetectorOptions) []scoredBox {
	side := opts.InputSize
	if side <= 0 {
		side = ssdInputSide
	}

	blob := gocv.BlobFromImage(mat, 1.0, image.Pt(side, side), gocv.NewScalar(104, 177, 123, 0), false, false)
	defer blob.Close()

	net.SetInput(blob, "")
	results := net.Forward("")
	defer results.Close()

	cols, rows := float64(mat.Cols()), float64(mat.Rows())
	var boxes []scoredBox
	for i := 0; i+6 < results.Total(); i += 7 {
		confidence := float64(results.GetFloatAt(0, i+2))
		if confidence < opts.ScoreThreshold {
			continue
		}
		left := clampUnit(results.GetFloatAt(0, i+3)) * cols
		top := clampUnit(results.GetFloatAt(0, i+4)) * rows
		right := clampUnit(results.GetFloatAt(0, i+5)) * cols
		bottom := clampUnit(results.GetFloatAt(0, i+6)) * rows
		if right <= left || bottom <= top {
			continue
		}
		boxes = append(boxes, scoredBox{
			box:   entity.Box{X: left, Y: top, Width: right - left, Height: bottom - top},
			score: confidence,
		})
	}
	return boxes
}

func detectLandmarks(net *gocv.Net, crop gocv.Mat, box entity.Box) []entity.Point {
	blob := gocv.BlobFromImage(crop, 1.0/255.0, image.Pt(landmarkInputSide, landmarkInputSide), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	net.SetInput(blob, "")
	out := net.Forward("")
	defer out.Close()

	if out.Total() < landmarkPoints*2 {
		return nil
	}
	points := make([]entity.Point, landmarkPoints)
	for k := 0; k < landmarkPoints; k++ {
		points[k] = entity.Point{
			X: box.X + float64(out.GetFloatAt(0, 2*k))*box.Width,
			Y: box.Y + float64(out.GetFloatAt(0, 2*k+1))*box.Height,
		}
	}
	return points
}

func classifyExpressions(net *gocv.Net, crop gocv.Mat) entity.Expressions {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(crop, &gray, gocv.ColorBGRToGray)

	blob := gocv.BlobFromImage(gray, 1.0, image.Pt(expressionSide, expressionSide), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	net.SetInput(blob, "")
	out := net.Forward("")
	defer out.Close()

	if out.Total() < len(ferplusOrder) {
		return entity.Expressions{}
	}
	logits := make([]float64, len(ferplusOrder))
	for i := range logits {
		logits[i] = float64(out.GetFloatAt(0, i))
	}
	probs := softmax(logits)

	scores := make(map[entity.Expression]float64, entity.ExpressionCount)
	for i, label := range ferplusOrder {
		if label == entity.ExpressionUnset {
			continue
		}
		scores[label] = probs[i]
	}
	return entity.NewExpressions(scores)
}

func softmax(v []float64) []float64 {
	peak := math.Inf(-1)
	for _, x := range v {
		if x > peak {
			peak = x
		}
	}
	sum := 0.0
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Exp(x - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func clampUnit(v float32) float64 {
	return math.Min(1, math.Max(0, float64(v)))
}

var (
	_ port.FaceDetector = (*DNNDetector)(nil)
	_ port.ModelLoader  = (*DNNDetector)(nil)
)
