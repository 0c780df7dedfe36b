package pricing

import "fmt"

// checkLines returns at most one violation per line, in cart order.
func checkLines(lines []CartLine, products []resolvedProduct) []Violation {
	var violations []Violation
	for i, line := range lines {
		if reason := checkLine(line, products[i]); reason != "" {
			violations = append(violations, Violation{Index: i, ProductID: line.ProductID, Reason: reason})
		}
	}
	return violations
}

func checkLine(line CartLine, rp resolvedProduct) string {
	switch {
	case !rp.found, !rp.product.Active:
		// Deactivated products are reported exactly like unknown ids.
		return reasonProductNotFound
	case line.Quantity <= 0:
		return reasonQuantityTooLow
	case line.Quantity > rp.product.Stock:
		return fmt.Sprintf("insufficient stock, requested %d, available %d", line.Quantity, rp.product.Stock)
	default:
		return ""
	}
}
