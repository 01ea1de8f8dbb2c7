package notionexport

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/account-mirror/internal/mirror"
)

// RecordToNotionProperties converts a mirrored record to Notion properties.
// The Transaction ID title property keys the upsert, so it must always be set.
func RecordToNotionProperties(rec *mirror.Record) notionapi.Properties {
	amount, _ := rec.Amount.Float64()

	props := notionapi.Properties{
		"Transaction ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: rec.ID,
					},
				},
			},
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(time.Date(
						rec.Date.Year,
						rec.Date.Month,
						rec.Date.Day,
						0, 0, 0, 0, time.UTC,
					))
					return &d
				}(),
			},
		},
		"Amount": notionapi.NumberProperty{
			Number: amount,
		},
		"Pending": notionapi.CheckboxProperty{
			Checkbox: rec.Pending,
		},
		"Internal": notionapi.CheckboxProperty{
			Checkbox: rec.Internal,
		},
	}

	// Description
	if rec.Name != "" {
		props["Description"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: rec.Name,
					},
				},
			},
		}
	}

	// Account
	if rec.Account != "" {
		props["Account"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: rec.Account,
			},
		}
	}

	// Category
	if rec.Category != "" {
		props["Category"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: rec.Category,
			},
		}
	}

	// Subcategory
	if rec.Subcategory != "" {
		props["Subcategory"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: rec.Subcategory,
			},
		}
	}

	// Channel
	if rec.Channel != "" {
		props["Channel"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: rec.Channel,
			},
		}
	}

	// Notes
	if rec.Notes != "" {
		props["Notes"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: rec.Notes,
					},
				},
			},
		}
	}

	return props
}

// extractTransactionID reads the Transaction ID title property from a
// Notion page. Returns empty string if the property is missing or empty.
func extractTransactionID(page notionapi.Page) string {
	prop, ok := page.Properties["Transaction ID"]
	if !ok {
		return ""
	}

	title, ok := prop.(*notionapi.TitleProperty)
	if !ok {
		return ""
	}

	if len(title.Title) == 0 {
		return ""
	}

	return title.Title[0].PlainText
}
