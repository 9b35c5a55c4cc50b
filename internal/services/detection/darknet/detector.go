// Package darknet runs a YOLOv3 Darknet model through OpenCV's DNN module to
// find people in a frame.
package darknet

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"distancing-worker-go/internal/config"
	"distancing-worker-go/internal/models"
	"distancing-worker-go/internal/services/detection"
)

// InputSize is the square network input YOLOv3 was trained with
const InputSize = 416

type Detector struct {
	mu        sync.Mutex
	closed    bool
	net       gocv.Net
	layers    []string
	personIdx int
	minConf   float32
	nmsThresh float32
}

// New loads the YOLOv3 weights, config and COCO labels from cfg.ModelPath
func New(cfg *config.Config) (*Detector, error) {
	for _, path := range []string{cfg.WeightsPath(), cfg.NetConfigPath(), cfg.LabelsPath()} {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %v", detection.ErrModelNotLoaded, err)
		}
	}

	labels, err := detection.LoadLabels(cfg.LabelsPath())
	if err != nil {
		return nil, err
	}
	personIdx, err := detection.ClassIndex(labels, cfg.PersonLabel)
	if err != nil {
		return nil, err
	}

	log.Info().Str("model_path", cfg.ModelPath).Msg("Loading YOLO model from disk")
	net := gocv.ReadNetFromDarknet(cfg.NetConfigPath(), cfg.WeightsPath())
	if net.Empty() {
		return nil, fmt.Errorf("%w: failed to read darknet network", detection.ErrModelNotLoaded)
	}

	backend, target := gocv.NetBackendDefault, gocv.NetTargetCPU
	if cfg.UseGPU {
		log.Info().Msg("Setting preferable backend and target to CUDA")
		backend, target = gocv.NetBackendCUDA, gocv.NetTargetCUDA
	}
	if err := net.SetPreferableBackend(backend); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend: %w", err)
	}
	if err := net.SetPreferableTarget(target); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable target: %w", err)
	}

	// only the unconnected output layers are needed
	names := net.GetLayerNames()
	var layers []string
	for _, i := range net.GetUnconnectedOutLayers() {
		layers = append(layers, names[i-1])
	}

	log.Info().
		Strs("output_layers", layers).
		Int("person_class", personIdx).
		Bool("gpu", cfg.UseGPU).
		Msg("Person detector ready")

	return &Detector{
		net:       net,
		layers:    layers,
		personIdx: personIdx,
		minConf:   float32(cfg.MinConf),
		nmsThresh: float32(cfg.NMSThresh),
	}, nil
}

// Detect returns every person found in frame
func (d *Detector) Detect(ctx context.Context, frame image.Image) (models.DetectionSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()

	return d.DetectMat(mat)
}

// DetectMat runs the network on a BGR Mat
func (d *Detector) DetectMat(mat gocv.Mat) (models.DetectionSet, error) {
	if mat.Empty() {
		return nil, detection.ErrEmptyFrame
	}

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(InputSize, InputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, detection.ErrModelNotLoaded
	}
	d.net.SetInput(blob, "")
	outputs := d.net.ForwardLayers(d.layers)
	d.mu.Unlock()

	var rows [][]float32
	for _, out := range outputs {
		rows = append(rows, matRows(out)...)
		out.Close()
	}

	candidates := detection.DecodeYOLO(rows, mat.Cols(), mat.Rows(), d.personIdx, d.minConf)
	kept := detection.SuppressOverlaps(candidates, d.minConf, d.nmsThresh)
	return detection.ToDetections(kept), nil
}

func matRows(m gocv.Mat) [][]float32 {
	rows := make([][]float32, m.Rows())
	for r := range rows {
		row := make([]float32, m.Cols())
		for c := range row {
			row[c] = m.GetFloatAt(r, c)
		}
		rows[r] = row
	}
	return rows
}

func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.net.Close()
}
