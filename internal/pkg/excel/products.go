// internal/pkg/excel/products.go
package excel

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sagaline/ecommerce-backend/internal/domain/product"
	"github.com/tealeg/xlsx"
)

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ProductHeaders is the header row of the product sheet
var ProductHeaders = []string{"ID", "Name", "SKU", "Brand", "Price", "Active", "Categories"}

// WriteProducts writes products as a single-sheet workbook to w
func WriteProducts(w io.Writer, products []product.ProductDTO) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, h := range ProductHeaders {
		headerRow.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(p.ID))
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.SKU)
		row.AddCell().SetString(p.Brand)
		row.AddCell().SetString(p.Price.StringFixed(2))
		row.AddCell().SetString(strconv.FormatBool(p.IsActive))

		names := make([]string, 0, len(p.Categories))
		for _, c := range p.Categories {
			names = append(names, c.Name)
		}
		row.AddCell().SetString(strings.Join(names, ", "))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
