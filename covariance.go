package ephem

import (
	"fmt"

	"github.com/gonum/matrix/mat64"
)

// Covariance is the compact representation of a symmetric 3x3 covariance matrix:
// the three variances followed by the covariances of components (0,1), (0,2) and (1,2).
type Covariance [6]float64

// NewDiagonalCovariance returns the covariance of uncorrelated components with the provided standard deviations.
func NewDiagonalCovariance(σ0, σ1, σ2 float64) Covariance {
	return Covariance{σ0 * σ0, σ1 * σ1, σ2 * σ2, 0, 0, 0}
}

// Sym returns the full symmetric matrix.
func (c Covariance) Sym() *mat64.SymDense {
	return mat64.NewSymDense(3, []float64{
		c[0], c[3], c[4],
		c[3], c[1], c[5],
		c[4], c[5], c[2]})
}

// At returns the (i, j) element of the full matrix.
func (c Covariance) At(i, j int) float64 {
	if i == j {
		return c[i]
	}
	return c[3+i+j-1]
}

// Add returns the sum of both covariances, as for the difference of two independent vectors.
func (c Covariance) Add(o Covariance) Covariance {
	var s Covariance
	for i := range c {
		s[i] = c[i] + o[i]
	}
	return s
}

// String implements the Stringer interface.
func (c Covariance) String() string {
	return fmt.Sprintf("var=[%g %g %g] cov=[%g %g %g]", c[0], c[1], c[2], c[3], c[4], c[5])
}

// covarianceFromMatrix extracts the compact representation, averaging off diagonal pairs.
func covarianceFromMatrix(m mat64.Matrix) Covariance {
	return Covariance{
		m.At(0, 0), m.At(1, 1), m.At(2, 2),
		0.5 * (m.At(0, 1) + m.At(1, 0)),
		0.5 * (m.At(0, 2) + m.At(2, 0)),
		0.5 * (m.At(1, 2) + m.At(2, 1))}
}

// PropagateCovariance returns J·C·Jᵀ for a 3x3 Jacobian J of a coordinate change.
func PropagateCovariance(J mat64.Matrix, c Covariance) Covariance {
	if r, cols := J.Dims(); r != 3 || cols != 3 {
		panic(fmt.Errorf("Jacobian must be 3x3, got %dx%d", r, cols))
	}
	var JCJt mat64.Dense
	JCJt.Product(J, c.Sym(), J.T())
	return covarianceFromMatrix(&JCJt)
}

// jacobian builds a 3x3 Jacobian from its rows.
func jacobian(rows ...[3]float64) *mat64.Dense {
	data := make([]float64, 0, 9)
	for _, row := range rows {
		data = append(data, row[:]...)
	}
	return mat64.NewDense(3, 3, data)
}
