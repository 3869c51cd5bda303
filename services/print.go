package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// Lebar kertas printer thermal 80mm
const printWidth = 42

const printTimeLayout = "02 Jan 2006 15:04"

func printRule(b *strings.Builder, ch string) {
	b.WriteString(strings.Repeat(ch, printWidth))
	b.WriteString("\n")
}

func printCentered(b *strings.Builder, text string) {
	pad := (printWidth - utf8.RuneCountInString(text)) / 2
	if pad < 0 {
		pad = 0
	}
	b.WriteString(strings.Repeat(" ", pad))
	b.WriteString(text)
	b.WriteString("\n")
}

// printRow writes left and right text on one line, right-aligned to the
// paper width.
func printRow(b *strings.Builder, left, right string) {
	gap := printWidth - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(left)
	b.WriteString(strings.Repeat(" ", gap))
	b.WriteString(right)
	b.WriteString("\n")
}

func itemLabel(quantity int, dish, portion string) string {
	label := fmt.Sprintf("%dx %s", quantity, dish)
	if portion != "" {
		label += " (" + portion + ")"
	}
	return label
}

func writeExtras(b *strings.Builder, extras []models.ExtraChoice) {
	for _, e := range extras {
		fmt.Fprintf(b, "   + %s x%d\n", e.Name, e.Quantity)
	}
}

// FormatKOT renders a KOT ticket for the kitchen printer.
func FormatKOT(data PrintData) string {
	var b strings.Builder
	printCentered(&b, "KITCHEN ORDER TICKET")
	printRule(&b, "=")
	printRow(&b, fmt.Sprintf("KOT #%d", data.KOTID), "Table: "+data.TableName)
	printRow(&b, "By: "+data.PunchedBy, data.PunchedAt.Format(printTimeLayout))
	printRule(&b, "-")

	for _, item := range data.Items {
		printRow(&b, itemLabel(item.Quantity, item.DishName, item.PortionName), utils.FormatCurrency(item.ItemTotal))
		writeExtras(&b, item.Extras)
	}

	printRule(&b, "-")
	printRow(&b, "TOTAL", utils.FormatRupees(data.Total))
	printRule(&b, "=")
	return b.String()
}

// FormatBill renders a customer bill. Deleted items are left out.
func FormatBill(bill *models.Bill) string {
	var b strings.Builder
	printCentered(&b, "BILL")
	printRule(&b, "=")
	printRow(&b, fmt.Sprintf("Bill #%d", bill.ID), "Table: "+bill.TableName)
	printRow(&b, "Date:", bill.CreatedAt.Format(printTimeLayout))
	printRule(&b, "-")

	for i := range bill.KOTs {
		for _, item := range bill.KOTs[i].LiveItems() {
			printRow(&b, itemLabel(item.Quantity, item.DishName, item.PortionName), utils.FormatCurrency(item.ItemTotal))
			writeExtras(&b, item.Extras)
		}
	}

	printRule(&b, "-")
	printRow(&b, "Subtotal", utils.FormatRupees(bill.Subtotal))
	printRow(&b, fmt.Sprintf("Tax (%s%%)", TaxRate.Shift(2).String()), utils.FormatRupees(bill.Tax))
	printRow(&b, "TOTAL", utils.FormatRupees(bill.Total))
	printRule(&b, "=")

	if bill.Status == models.BillStatusSettled && bill.PaymentMode != nil {
		printRow(&b, "Paid via", *bill.PaymentMode)
		if bill.SettledBy != nil {
			printRow(&b, "Settled by", *bill.SettledBy)
		}
	}
	printCentered(&b, "Thank you, visit again!")
	return b.String()
}
