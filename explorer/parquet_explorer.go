package explorer

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/geosfm/satba/lib/reporter"
	"github.com/parquet-go/parquet-go"
)

// passData holds the aggregated residuals of one pass.
type passData struct {
	pass   Pass
	images map[int]*ImageErrors
	tracks map[int]*TrackErrors
}

// readPassFile reads one residual parquet file and aggregates it per
// image and per track.
func readPassFile(filenameBase string, filename string, passId int) (*passData, error) {
	path := filepath.Join(filenameBase, filename)
	pqfile, err := os.Open(path)
	if err != nil {
		log.Printf("failed to open residuals parquet file: %v\n", err)
		return nil, err
	}
	defer pqfile.Close()
	stat, err := pqfile.Stat()
	if err != nil {
		return nil, err
	}
	file, err := parquet.OpenFile(pqfile, stat.Size())
	if err != nil {
		log.Printf("parquet: failed to open residuals file: %v\n", err)
		return nil, err
	}

	data := &passData{
		pass:   Pass{ID: passId, Filename: filename},
		images: make(map[int]*ImageErrors),
		tracks: make(map[int]*TrackErrors),
	}
	reader := parquet.NewGenericReader[reporter.ObservationResidual](file)
	defer reader.Close()
	rows := make([]reporter.ObservationResidual, 1000)
	for done := false; !done; {
		numRead, err := reader.Read(rows)
		if err != nil {
			if errors.Is(err, io.EOF) {
				done = true
			} else {
				return nil, err
			}
		}
		for i, row := range rows {
			if i >= numRead {
				break
			}
			data.add(row)
		}
	}
	data.finalize()
	return data, nil
}

func (d *passData) add(row reporter.ObservationResidual) {
	d.pass.NObservations++
	d.pass.MeanErrBefore += row.ErrBefore
	d.pass.MeanErrAfter += row.ErrAfter
	if row.ErrAfter > d.pass.MaxErrAfter {
		d.pass.MaxErrAfter = row.ErrAfter
	}

	img, ok := d.images[row.Camera]
	if !ok {
		img = &ImageErrors{Image: row.Camera}
		d.images[row.Camera] = img
	}
	img.NObservations++
	img.MeanErrBefore += row.ErrBefore
	img.MeanErrAfter += row.ErrAfter
	if row.ErrAfter > img.MaxErrAfter {
		img.MaxErrAfter = row.ErrAfter
	}

	trk, ok := d.tracks[row.Track]
	if !ok {
		trk = &TrackErrors{Track: row.Track}
		d.tracks[row.Track] = trk
	}
	trk.NObservations++
	trk.MeanErrAfter += row.ErrAfter
	if row.ErrAfter > trk.MaxErrAfter {
		trk.MaxErrAfter = row.ErrAfter
	}
}

// finalize turns the accumulated sums into means.
func (d *passData) finalize() {
	if d.pass.NObservations > 0 {
		d.pass.MeanErrBefore /= float64(d.pass.NObservations)
		d.pass.MeanErrAfter /= float64(d.pass.NObservations)
	}
	for _, img := range d.images {
		if img.NObservations > 0 {
			img.MeanErrBefore /= float64(img.NObservations)
			img.MeanErrAfter /= float64(img.NObservations)
		}
	}
	for _, trk := range d.tracks {
		if trk.NObservations > 0 {
			trk.MeanErrAfter /= float64(trk.NObservations)
		}
	}
}
