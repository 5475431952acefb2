package pricing

import (
	"testing"

	invoicedomain "github.com/openrentals/rentbill/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassify_ContractOriginService(t *testing.T) {
	kw := DefaultKeywords()

	item := invoicedomain.InvoiceItem{Name: "Tiền điện", Category: invoicedomain.CategoryUtility}

	caps := Classify(item, ModePerUsage, kw)
	assert.True(t, caps.IsEditable)
	assert.True(t, caps.CanEditDescription)
	assert.True(t, caps.CanEditMeterReadings)

	caps = Classify(item, ModePerRoom, kw)
	assert.True(t, caps.IsEditable)
	assert.False(t, caps.CanEditMeterReadings)
}

func TestClassify_RentLine(t *testing.T) {
	kw := DefaultKeywords()

	rent := invoicedomain.InvoiceItem{Name: "Tiền phòng", Category: invoicedomain.CategoryRent}
	caps := Classify(rent, ModeNone, kw)
	assert.True(t, caps.IsEditable)
	assert.True(t, caps.CanEditDescription)
	assert.False(t, caps.CanEditMeterReadings)
}

func TestClassify_RentWithTemplateOriginLockedDown(t *testing.T) {
	kw := DefaultKeywords()
	tmplID := testID(7)

	rent := invoicedomain.InvoiceItem{
		Name:       "Tiền phòng",
		Category:   invoicedomain.CategoryRent,
		TemplateID: &tmplID,
	}
	assert.Equal(t, Editability{}, Classify(rent, ModeNone, kw))
}

func TestClassify_TemplateItemByCategory(t *testing.T) {
	kw := DefaultKeywords()
	tmplID := testID(9)

	item := invoicedomain.InvoiceItem{
		Name:       "Phí vệ sinh",
		Category:   invoicedomain.CategoryService,
		TemplateID: &tmplID,
	}
	caps := Classify(item, ModeNone, kw)
	assert.True(t, caps.IsEditable)
	assert.True(t, caps.CanEditDescription)
	assert.False(t, caps.CanEditMeterReadings)

	caps = Classify(item, ModePerUsage, kw)
	assert.True(t, caps.CanEditMeterReadings)
}

func TestClassify_UnknownCategoryLockedDown(t *testing.T) {
	kw := DefaultKeywords()
	tmplID := testID(3)

	item := invoicedomain.InvoiceItem{
		Name:       "Mystery",
		Category:   invoicedomain.ItemCategory("bogus"),
		TemplateID: &tmplID,
	}
	assert.Equal(t, Editability{}, Classify(item, ModeNone, kw))
}

// Unit price and quantity stay read-only in every branch of the table.
func TestClassify_UnitPriceAndQuantityNeverEditable(t *testing.T) {
	kw := DefaultKeywords()
	tmplID := testID(11)

	items := []invoicedomain.InvoiceItem{
		{Name: "Tiền phòng", Category: invoicedomain.CategoryRent},
		{Name: "Tiền điện", Category: invoicedomain.CategoryUtility},
		{Name: "Tiền nước", Category: invoicedomain.CategoryUtility},
		{Name: "Internet", Category: invoicedomain.CategoryService},
		{Name: "Phí sửa chữa", Category: invoicedomain.CategoryMaintenance, TemplateID: &tmplID},
		{Name: "Khác", Category: invoicedomain.CategoryOther},
	}
	modes := []Mode{ModeNone, ModePerRoom, ModePerUsage, ModePerPerson}

	for _, item := range items {
		for _, mode := range modes {
			caps := Classify(item, mode, kw)
			assert.False(t, caps.CanEditUnitPrice, "%s/%s", item.Name, mode)
			assert.False(t, caps.CanEditQuantity, "%s/%s", item.Name, mode)
		}
	}
}

func TestIsContractOrigin(t *testing.T) {
	kw := DefaultKeywords()
	tmplID := testID(5)

	assert.True(t, IsContractOrigin(invoicedomain.InvoiceItem{Name: "Tiền phòng", Category: invoicedomain.CategoryRent}, kw))
	assert.True(t, IsContractOrigin(invoicedomain.InvoiceItem{Name: "tiền điện", Category: invoicedomain.CategoryUtility}, kw))
	assert.True(t, IsContractOrigin(invoicedomain.InvoiceItem{Name: "wifi phòng 201", Category: invoicedomain.CategoryService}, kw))
	assert.False(t, IsContractOrigin(invoicedomain.InvoiceItem{Name: "Phí vệ sinh", Category: invoicedomain.CategoryService}, kw))
	assert.False(t, IsContractOrigin(invoicedomain.InvoiceItem{Name: "Tiền điện", Category: invoicedomain.CategoryUtility, TemplateID: &tmplID}, kw))
}
