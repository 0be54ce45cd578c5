package mvstats

import (
	"math"

	"ringpulse/linalg"
)

// MANOVAResult holds the multivariate test statistics comparing group means.
type MANOVAResult struct {
	WilksLambda  float64 `json:"wilks_lambda"`
	PillaiTrace  float64 `json:"pillai_trace"`
	FStatistic   float64 `json:"f_statistic"`
	DFHypothesis float64 `json:"df_hypothesis"`
	DFError      float64 `json:"df_error"`
	PValue       float64 `json:"p_value"`
	Alpha        float64 `json:"alpha"`
	RejectNull   bool    `json:"reject_null"`
}

// MANOVA tests whether group mean vectors differ. It forms the between and
// within group SSCP matrices, computes Wilks' Lambda (|W|/|B+W|) and
// Pillai's trace, converts Lambda to Rao's F approximation, and evaluates
// the p-value through the F distribution. alpha <= 0 defaults to 0.05.
func MANOVA(groups [][][]float64, alpha float64, cfg EigenConfig) (*MANOVAResult, error) {
	if len(groups) < 2 {
		return nil, ErrTooFewGroups
	}
	if alpha <= 0 {
		alpha = 0.05
	}

	dims := 0
	total := 0
	for _, group := range groups {
		if err := validate(group, 2); err != nil {
			return nil, err
		}
		if dims == 0 {
			dims = len(group[0])
		} else if len(group[0]) != dims {
			return nil, ErrUnevenVectors
		}
		total += len(group)
	}

	// Grand and per-group means.
	grand := make([]float64, dims)
	groupMeans := make([][]float64, len(groups))
	for g, group := range groups {
		groupMeans[g] = columnMeans(group)
		for _, row := range group {
			for j, v := range row {
				grand[j] += v
			}
		}
	}
	for j := range grand {
		grand[j] /= float64(total)
	}

	within, err := linalg.NewMatrix(dims, dims)
	if err != nil {
		return nil, err
	}
	between, err := linalg.NewMatrix(dims, dims)
	if err != nil {
		return nil, err
	}
	for g, group := range groups {
		mean := groupMeans[g]
		for _, row := range group {
			for i := 0; i < dims; i++ {
				for j := 0; j < dims; j++ {
					within.Set(i, j, within.At(i, j)+(row[i]-mean[i])*(row[j]-mean[j]))
				}
			}
		}
		n := float64(len(group))
		for i := 0; i < dims; i++ {
			for j := 0; j < dims; j++ {
				between.Set(i, j, between.At(i, j)+n*(mean[i]-grand[i])*(mean[j]-grand[j]))
			}
		}
	}

	totalSSCP, err := within.Add(between)
	if err != nil {
		return nil, err
	}
	detW, err := within.Determinant()
	if err != nil {
		return nil, err
	}
	detT, err := totalSSCP.Determinant()
	if err != nil {
		return nil, err
	}

	lambda := 1.0
	if detT != 0 {
		lambda = detW / detT
	}
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}

	// Pillai's trace = tr((B+W)⁻¹ B).
	totalInv, err := totalSSCP.Invert()
	if err != nil {
		return nil, err
	}
	hb, err := totalInv.Multiply(between)
	if err != nil {
		return nil, err
	}
	pillai, err := hb.Trace()
	if err != nil {
		return nil, err
	}

	result := &MANOVAResult{
		WilksLambda: lambda,
		PillaiTrace: pillai,
		Alpha:       alpha,
	}

	// Rao's F approximation for Wilks' Lambda.
	p := float64(dims)
	q := float64(len(groups) - 1)
	n := float64(total)
	df1 := p * q
	s := 1.0
	if denom := p*p + q*q - 5; denom > 0 {
		s = math.Sqrt((p*p*q*q - 4) / denom)
	}
	m := n - 1 - (p+q+1)/2
	df2 := m*s - df1/2 + 1
	if df2 < 1 {
		df2 = 1
	}

	root := math.Pow(lambda, 1/s)
	f := math.Inf(1)
	if root > 0 {
		f = (1 - root) / root * df2 / df1
	}

	result.FStatistic = f
	result.DFHypothesis = df1
	result.DFError = df2
	result.PValue = fSurvival(f, df1, df2)
	result.RejectNull = result.PValue < alpha
	return result, nil
}

// fSurvival returns P(F > f) for an F distribution with df1 and df2 degrees
// of freedom, evaluated through the regularized incomplete beta function.
func fSurvival(f, df1, df2 float64) float64 {
	if math.IsInf(f, 1) {
		return 0
	}
	if f <= 0 {
		return 1
	}
	x := df2 / (df2 + df1*f)
	return incompleteBeta(df2/2, df1/2, x)
}

// incompleteBeta evaluates the regularized incomplete beta function I_x(a,b)
// with the continued-fraction expansion (modified Lentz's method).
func incompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	lnBeta, _ := math.Lgamma(a + b)
	lnA, _ := math.Lgamma(a)
	lnB, _ := math.Lgamma(b)
	front := math.Exp(lnBeta - lnA - lnB + a*math.Log(x) + b*math.Log(1-x))

	// The continued fraction converges quickly for x < (a+1)/(a+b+2);
	// otherwise use the symmetry relation.
	if x > (a+1)/(a+b+2) {
		return 1 - incompleteBeta(b, a, 1-x)
	}
	return front * betaContinuedFraction(a, b, x) / a
}

func betaContinuedFraction(a, b, x float64) float64 {
	const (
		maxIterations = 300
		epsilon       = 1e-14
		tiny          = 1e-30
	)

	c := 1.0
	d := 1 - (a+b)*x/(a+1)
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	result := d

	for i := 1; i <= maxIterations; i++ {
		m := float64(i)

		// Even step.
		numerator := m * (b - m) * x / ((a + 2*m - 1) * (a + 2*m))
		d = 1 + numerator*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + numerator/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		result *= d * c

		// Odd step.
		numerator = -(a + m) * (a + b + m) * x / ((a + 2*m) * (a + 2*m + 1))
		d = 1 + numerator*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + numerator/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		delta := d * c
		result *= delta

		if math.Abs(delta-1) < epsilon {
			break
		}
	}
	return result
}
