package entity

// DetectorOptions параметры вызова детектора
type DetectorOptions struct {
	InputSize       int     // сторона входа быстрого детектора
	ScoreThreshold  float64 // минимальная уверенность
	WithLandmarks   bool    // искать ключевые точки
	WithExpressions bool    // оценивать эмоции
}

// DefaultDetectorOptions быстрый режим с точками и эмоциями
func DefaultDetectorOptions() DetectorOptions {
	return DetectorOptions{
		InputSize:       416,
		ScoreThreshold:  0.5,
		WithLandmarks:   true,
		WithExpressions: true,
	}
}

// ModelArtifact файл модели, загружаемый при старте
type ModelArtifact struct {
	Name   string
	File   string
	Config string // описание сети, если формат его требует
}

const (
	ModelFaceDetector    = "face_detector"
	ModelFaceLandmark68  = "face_landmark_68"
	ModelFaceRecognition = "face_recognition"
	ModelFaceExpression  = "face_expression"
)

// DefaultModelArtifacts четыре модели, без которых сессия не стартует
func DefaultModelArtifacts() []ModelArtifact {
	return []ModelArtifact{
		{Name: ModelFaceDetector, File: "res10_300x300_ssd_iter_140000.caffemodel", Config: "deploy.prototxt"},
		{Name: ModelFaceLandmark68, File: "face_landmark_68.onnx"},
		{Name: ModelFaceRecognition, File: "face_recognition.onnx"},
		{Name: ModelFaceExpression, File: "emotion-ferplus-8.onnx"},
	}
}
