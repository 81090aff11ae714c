package tensor

import "fmt"

// Matrix is a dense row-major numeric buffer with shape metadata. It is the
// only array representation the prediction clients accept and produce; no
// linear algebra happens client-side, the server owns the computation.
type Matrix struct {
	rows int
	cols int
	data []float64
}

// New creates a zero-valued rows-by-cols matrix.
func New(rows, cols int) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid matrix shape %dx%d", rows, cols)
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}, nil
}

// FromRows builds a matrix from nested row slices. All rows must have the
// same length.
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("matrix requires at least one row and one column")
	}
	cols := len(rows[0])
	m := &Matrix{rows: len(rows), cols: cols, data: make([]float64, 0, len(rows)*cols)}
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("ragged matrix: row %d has %d columns, expected %d", i, len(row), cols)
		}
		m.data = append(m.data, row...)
	}
	return m, nil
}

// ColumnVector builds an n-by-1 matrix from a flat slice.
func ColumnVector(values []float64) (*Matrix, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("column vector requires at least one value")
	}
	m := &Matrix{rows: len(values), cols: 1, data: make([]float64, len(values))}
	copy(m.data, values)
	return m, nil
}

// RowVector builds a 1-by-n matrix from a flat slice.
func RowVector(values []float64) (*Matrix, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("row vector requires at least one value")
	}
	m := &Matrix{rows: 1, cols: len(values), data: make([]float64, len(values))}
	copy(m.data, values)
	return m, nil
}

func (m *Matrix) Rows() int { return m.rows }

func (m *Matrix) Cols() int { return m.cols }

// At returns the value at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.cols+j]
}

// Set assigns the value at row i, column j.
func (m *Matrix) Set(i, j int, v float64) {
	m.data[i*m.cols+j] = v
}

// ColMatrix returns column j as a new rows-by-1 matrix.
func (m *Matrix) ColMatrix(j int) (*Matrix, error) {
	if j < 0 || j >= m.cols {
		return nil, fmt.Errorf("column index %d out of range for %dx%d matrix", j, m.rows, m.cols)
	}
	out := &Matrix{rows: m.rows, cols: 1, data: make([]float64, m.rows)}
	for i := 0; i < m.rows; i++ {
		out.data[i] = m.At(i, j)
	}
	return out, nil
}

// RowMatrix returns row i as a new 1-by-cols matrix.
func (m *Matrix) RowMatrix(i int) (*Matrix, error) {
	if i < 0 || i >= m.rows {
		return nil, fmt.Errorf("row index %d out of range for %dx%d matrix", i, m.rows, m.cols)
	}
	out := &Matrix{rows: 1, cols: m.cols, data: make([]float64, m.cols)}
	copy(out.data, m.data[i*m.cols:(i+1)*m.cols])
	return out, nil
}

// Nested converts the matrix to nested row slices for wire serialization.
func (m *Matrix) Nested() [][]float64 {
	out := make([][]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		row := make([]float64, m.cols)
		copy(row, m.data[i*m.cols:(i+1)*m.cols])
		out[i] = row
	}
	return out
}

// HStack concatenates matrices left to right. All inputs must share the same
// row count.
func HStack(ms ...*Matrix) (*Matrix, error) {
	if len(ms) == 0 {
		return nil, fmt.Errorf("hstack requires at least one matrix")
	}
	rows := ms[0].rows
	cols := 0
	for i, m := range ms {
		if m.rows != rows {
			return nil, fmt.Errorf("hstack: matrix %d has %d rows, expected %d", i, m.rows, rows)
		}
		cols += m.cols
	}
	out := &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
	offset := 0
	for _, m := range ms {
		for i := 0; i < rows; i++ {
			copy(out.data[i*cols+offset:i*cols+offset+m.cols], m.data[i*m.cols:(i+1)*m.cols])
		}
		offset += m.cols
	}
	return out, nil
}

// VStack concatenates matrices top to bottom. All inputs must share the same
// column count.
func VStack(ms ...*Matrix) (*Matrix, error) {
	if len(ms) == 0 {
		return nil, fmt.Errorf("vstack requires at least one matrix")
	}
	cols := ms[0].cols
	rows := 0
	for i, m := range ms {
		if m.cols != cols {
			return nil, fmt.Errorf("vstack: matrix %d has %d columns, expected %d", i, m.cols, cols)
		}
		rows += m.rows
	}
	out := &Matrix{rows: rows, cols: cols, data: make([]float64, 0, rows*cols)}
	for _, m := range ms {
		out.data = append(out.data, m.data...)
	}
	return out, nil
}
