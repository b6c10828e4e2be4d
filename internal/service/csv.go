package service

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"crm-pipeline/internal/domain"
)

// CSVService 机会导出 / 客户导入。导入按行提交，坏行只记入错误列表，
// 不回滚整个文件（部分成功语义）。
type CSVService struct {
	opps      domain.OpportunityRepository
	customers domain.CustomerRepository
}

func NewCSVService(opps domain.OpportunityRepository, customers domain.CustomerRepository) *CSVService {
	return &CSVService{opps: opps, customers: customers}
}

var exportHeader = []string{"ID", "Title", "Customer", "Value", "CloseDate", "Stage", "Status", "Owner", "CreatedAt"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (s *CSVService) ExportOpportunities(w io.Writer, p domain.Principal) error {
	rows, err := s.opps.ExportRows(domain.ScopeForUser(p))
	if err != nil {
		return err
	}
	// BOM 让 Excel 按 UTF-8 打开
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.ID,
			r.Title,
			r.CustomerName,
			r.Value.StringFixed(2),
			r.CloseDate.Format("2006-01-02"),
			r.StageName,
			r.Status,
			r.OwnerName,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type ImportResult struct {
	Created int      `json:"created"`
	Errors  []string `json:"errors"`
}

func (s *CSVService) ImportCustomers(r io.Reader) (*ImportResult, error) {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(3); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, domain.Invalid("file", "cannot read csv header")
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	nameI, ok := idx["name"]
	if !ok {
		return nil, domain.Invalid("file", "missing 'name' column")
	}
	emailI, hasEmail := idx["email"]
	phoneI, hasPhone := idx["phone"]

	res := &ImportResult{Errors: []string{}}
	line := 1
	for {
		line++
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		name := field(rec, nameI)
		if name == "" {
			// 无名行直接跳过，不算错误
			continue
		}
		email := ""
		if hasEmail {
			email = field(rec, emailI)
		}
		phone := ""
		if hasPhone {
			phone = field(rec, phoneI)
		}
		_, created, err := s.customers.GetOrCreateByEmail(email, &domain.Customer{Name: name, Phone: phone})
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		if created {
			res.Created++
		}
	}
	return res, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
