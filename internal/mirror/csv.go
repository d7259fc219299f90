package mirror

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// CSVMirror keeps the sheet as a local CSV file. Each call reads the
// whole file and rewrites it, mirroring the store's read-modify-write
// model; the file stays editable by hand between runs.
type CSVMirror struct {
	Path string
}

func NewCSVMirror(path string) *CSVMirror {
	return &CSVMirror{Path: path}
}

var header = []string{
	"order_id", "client", "phone", "group", "executor", "subject",
	"created_at", "due_date", "executor_price", "final_price", "profit", "status",
}

func (m *CSVMirror) load() ([][]string, error) {
	f, err := os.Open(m.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read mirror %s: %w", m.Path, err)
	}
	if len(records) > 0 && len(records[0]) > 0 && records[0][0] == header[0] {
		records = records[1:]
	}
	return records, nil
}

func (m *CSVMirror) save(records [][]string) error {
	f, err := os.Create(m.Path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (m *CSVMirror) Append(ctx context.Context, row Row) error {
	records, err := m.load()
	if err != nil {
		return err
	}
	records = append(records, []string{
		strconv.FormatInt(row.OrderID, 10),
		row.ClientName, row.Phone, row.Group, row.ExecutorID, row.Subject,
		row.CreatedAt, row.DueDate,
		strconv.Itoa(row.ExecutorPrice), strconv.Itoa(row.FinalPrice), strconv.Itoa(row.Profit),
		row.Status,
	})
	return m.save(records)
}

func (m *CSVMirror) UpdateStatus(ctx context.Context, orderID int64, status string) error {
	records, err := m.load()
	if err != nil {
		return err
	}
	id := strconv.FormatInt(orderID, 10)
	for _, rec := range records {
		if len(rec) == len(header) && rec[0] == id {
			rec[len(rec)-1] = status
		}
	}
	return m.save(records)
}

func (m *CSVMirror) Delete(ctx context.Context, orderID int64) error {
	records, err := m.load()
	if err != nil {
		return err
	}
	id := strconv.FormatInt(orderID, 10)
	kept := records[:0]
	for _, rec := range records {
		if len(rec) > 0 && rec[0] == id {
			continue
		}
		kept = append(kept, rec)
	}
	return m.save(kept)
}

func (m *CSVMirror) MaxOrderID(ctx context.Context) (int64, error) {
	records, err := m.load()
	if err != nil {
		return 0, err
	}
	var max int64
	for _, rec := range records {
		if len(rec) == 0 {
			continue
		}
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			continue
		}
		if id > max {
			max = id
		}
	}
	return max, nil
}
