package hgt

// Value is one decoded cell, produced in row-major order from the
// north-west corner. Line and Col are 1-based.
type Value struct {
	Line      int
	Col       int
	Index     int
	Square    Square
	Elevation int16
	Void      bool
}

// ValueIterator walks every cell of a tile, one sample at a time.
// Follow the sql.Rows pattern: Next, Value, then Err once Next
// returns false.
type ValueIterator struct {
	p   *Parser
	idx int
	cur Value
	err error
}

// Values returns a full-resolution iterator over the tile.
func (p *Parser) Values() *ValueIterator {
	return &ValueIterator{p: p}
}

// Len is the total number of cells the iterator will produce.
func (it *ValueIterator) Len() int {
	return it.p.Rows * it.p.Cols
}

func (it *ValueIterator) Next() bool {
	if it.err != nil || it.idx >= it.Len() {
		return false
	}

	line := it.idx / it.p.Cols
	col := it.idx % it.p.Cols

	raw, err := it.p.valueAt(it.idx)
	if err != nil {
		it.err = err
		return false
	}

	it.cur = Value{
		Line:      line + 1,
		Col:       col + 1,
		Index:     it.idx,
		Square:    it.p.ShiftSquare(line, col),
		Elevation: raw,
		Void:      raw == VoidValue,
	}
	it.idx++
	return true
}

func (it *ValueIterator) Value() Value {
	return it.cur
}

func (it *ValueIterator) Err() error {
	return it.err
}

// Block is a rectangular group of raw samples. Values is indexed
// [line][col] from the block's top-left cell; void cells keep the raw
// VoidValue. Square is the footprint of the top-left cell.
type Block struct {
	Line   int
	Col    int
	Square Square
	Values [][]int16
}

// SampleIterator walks the tile in rectangular blocks, for stores that
// ingest rasters rather than single points.
type SampleIterator struct {
	p             *Parser
	width, height int
	line, col     int
	cur           Block
	err           error
}

// Samples returns a block iterator of the given block width and
// height. Edge blocks are clipped to the grid.
func (p *Parser) Samples(width, height int) *SampleIterator {
	if width <= 0 {
		width = p.Cols
	}
	if height <= 0 {
		height = p.Rows
	}
	return &SampleIterator{p: p, width: width, height: height}
}

// Len is the number of blocks the iterator will produce.
func (it *SampleIterator) Len() int {
	across := (it.p.Cols + it.width - 1) / it.width
	down := (it.p.Rows + it.height - 1) / it.height
	return across * down
}

func (it *SampleIterator) Next() bool {
	if it.err != nil || it.line >= it.p.Rows {
		return false
	}

	values, err := it.readBlock(it.col, it.line)
	if err != nil {
		it.err = err
		return false
	}

	it.cur = Block{
		Line:   it.line,
		Col:    it.col,
		Square: it.p.ShiftSquare(it.line, it.col),
		Values: values,
	}

	it.col += it.width
	if it.col >= it.p.Cols {
		it.col = 0
		it.line += it.height
	}
	return true
}

func (it *SampleIterator) Block() Block {
	return it.cur
}

func (it *SampleIterator) Err() error {
	return it.err
}

func (it *SampleIterator) readBlock(col, line int) ([][]int16, error) {
	values := make([][]int16, 0, it.height)
	for l := line; l < min(it.p.Rows, line+it.height); l++ {
		row := make([]int16, 0, it.width)
		for c := col; c < min(it.p.Cols, col+it.width); c++ {
			v, err := it.p.valueAt(it.p.index(c, l))
			if err != nil {
				return nil, err
			}
			row = append(row, v)
		}
		values = append(values, row)
	}
	return values, nil
}
