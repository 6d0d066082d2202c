package layer

import "math/rand"

// Dropout implements inverted dropout regularization.
// During training, randomly sets inputs to 0 with probability p and scales
// the survivors by 1/(1-p). During inference, passes inputs through unchanged.
type Dropout struct {
	p        float64
	training bool
	size     int

	outputBuf []float64
	maskBuf   []float64
	gradInBuf []float64

	rng *rand.Rand
}

// NewDropout creates a new dropout layer seeded with 42.
func NewDropout(p float64, size int) *Dropout {
	return NewDropoutSeed(p, size, 42)
}

// NewDropoutSeed creates a dropout layer with an explicit mask seed.
func NewDropoutSeed(p float64, size int, seed int64) *Dropout {
	return &Dropout{
		p:         p,
		training:  true,
		size:      size,
		outputBuf: make([]float64, size),
		maskBuf:   make([]float64, size),
		gradInBuf: make([]float64, size),
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// SetTraining sets whether the layer should be in training or inference mode.
func (d *Dropout) SetTraining(training bool) {
	d.training = training
}

// IsTraining returns whether the layer is in training mode.
func (d *Dropout) IsTraining() bool {
	return d.training
}

// Rate returns the drop probability.
func (d *Dropout) Rate() float64 {
	return d.p
}

// Forward performs a forward pass through the dropout layer.
func (d *Dropout) Forward(x []float64) []float64 {
	if !d.training || d.p <= 0 {
		for i := range d.maskBuf {
			d.maskBuf[i] = 1
		}
		copy(d.outputBuf, x)
		return d.outputBuf
	}

	scale := 1.0 / (1.0 - d.p)
	for i := 0; i < d.size; i++ {
		if d.rng.Float64() < d.p {
			d.maskBuf[i] = 0
			d.outputBuf[i] = 0
		} else {
			d.maskBuf[i] = scale
			d.outputBuf[i] = x[i] * scale
		}
	}

	return d.outputBuf
}

// Backward routes the gradient through the surviving units.
func (d *Dropout) Backward(grad []float64) []float64 {
	for i := 0; i < d.size; i++ {
		d.gradInBuf[i] = grad[i] * d.maskBuf[i]
	}
	return d.gradInBuf
}

// Params returns nil; dropout has no learnable parameters.
func (d *Dropout) Params() []float64 { return nil }

// SetParams is a no-op.
func (d *Dropout) SetParams([]float64) {}

// Gradients returns nil.
func (d *Dropout) Gradients() []float64 { return nil }

// ZeroGrad is a no-op.
func (d *Dropout) ZeroGrad() {}

// InSize returns the input size.
func (d *Dropout) InSize() int { return d.size }

// OutSize returns the output size.
func (d *Dropout) OutSize() int { return d.size }
