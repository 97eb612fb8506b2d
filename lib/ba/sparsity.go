package ba

// A SparsityPattern lists the potentially nonzero Jacobian entries of
// the residual function, so a sparse solver never touches the zero
// blocks. Rows are residual components, columns parameters.
type SparsityPattern struct {
	NRows   int
	NCols   int
	RowCols [][2]int
}

// Sparsity derives the pattern from the observation index arrays: each
// observation couples its two residual rows with one camera block and
// one point block.
func (p *Params) Sparsity() *SparsityPattern {
	s := &SparsityPattern{
		NRows: 2 * len(p.Pts2d),
		NCols: p.NParams(),
	}
	ptsBase := p.NOptCameras() * CameraParamCount
	for k := range p.Pts2d {
		for r := 0; r < 2; r++ {
			row := 2*k + r
			if p.OptCameras && p.CamInd[k] >= p.NFixed {
				base := (p.CamInd[k] - p.NFixed) * CameraParamCount
				for j := 0; j < CameraParamCount; j++ {
					s.RowCols = append(s.RowCols, [2]int{row, base + j})
				}
			}
			if p.OptPoints {
				base := ptsBase + 3*p.PtsInd[k]
				for j := 0; j < 3; j++ {
					s.RowCols = append(s.RowCols, [2]int{row, base + j})
				}
			}
		}
	}
	return s
}
