package amr

// Array3 is a flat (k,j,i) array with i fastest, sized once and indexed
// without bounds arithmetic at the call sites.
type Array3 struct {
	n3, n2, n1 int
	data       []float64
}

func NewArray3(n3, n2, n1 int) *Array3 {
	return &Array3{n3: n3, n2: n2, n1: n1, data: make([]float64, n3*n2*n1)}
}

func (a *Array3) At(k, j, i int) float64     { return a.data[(k*a.n2+j)*a.n1+i] }
func (a *Array3) Set(k, j, i int, v float64) { a.data[(k*a.n2+j)*a.n1+i] = v }
func (a *Array3) Add(k, j, i int, v float64) { a.data[(k*a.n2+j)*a.n1+i] += v }
func (a *Array3) Data() []float64            { return a.data }
func (a *Array3) Dims() (n3, n2, n1 int)     { return a.n3, a.n2, a.n1 }

// Array4 adds a leading variable index to Array3.
type Array4 struct {
	nvar, n3, n2, n1 int
	data             []float64
}

func NewArray4(nvar, n3, n2, n1 int) *Array4 {
	return &Array4{nvar: nvar, n3: n3, n2: n2, n1: n1, data: make([]float64, nvar*n3*n2*n1)}
}

func (a *Array4) At(n, k, j, i int) float64     { return a.data[((n*a.n3+k)*a.n2+j)*a.n1+i] }
func (a *Array4) Set(n, k, j, i int, v float64) { a.data[((n*a.n3+k)*a.n2+j)*a.n1+i] = v }
func (a *Array4) Add(n, k, j, i int, v float64) { a.data[((n*a.n3+k)*a.n2+j)*a.n1+i] += v }
func (a *Array4) Data() []float64               { return a.data }
func (a *Array4) NVar() int                     { return a.nvar }

// Row returns the contiguous i-row for one (n,k,j), letting the flux
// kernels work on plain slices.
func (a *Array4) Row(n, k, j int) []float64 {
	base := ((n*a.n3+k)*a.n2 + j) * a.n1
	return a.data[base : base+a.n1]
}

// CopyFrom copies the full contents of b, which must have equal size.
func (a *Array4) CopyFrom(b *Array4) {
	copy(a.data, b.data)
}
