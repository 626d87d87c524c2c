package plan

import "strconv"

// =============================================================================
// ORDER TOTAL - Line items + freight - discount
// =============================================================================

// ComputeTotal computes an order total from its line items, freight and
// discount: round2(sum(quantity x unitPrice) + freight - discount).
//
// Zero items is not an error; the result is freight minus discount.
//
// A discount larger than items plus freight yields a NEGATIVE total. The
// engine deliberately does not clamp it: downstream Generate treats a
// non-positive total as "no plan", and hiding the oversized discount here
// would make the order look free instead of wrong.
func ComputeTotal(items []LineItem, freight, discount Amount) (Amount, error) {
	if freight.IsNegative() {
		return Zero(), &InvalidInputError{Field: "freight", Reason: "must not be negative"}
	}
	if discount.IsNegative() {
		return Zero(), &InvalidInputError{Field: "discount", Reason: "must not be negative"}
	}

	subtotal := Zero()
	for i, item := range items {
		if !item.Quantity.IsPositive() {
			return Zero(), &InvalidInputError{
				Field:  "quantity",
				Reason: "must be positive (item " + strconv.Itoa(i) + ")",
			}
		}
		if item.UnitPrice.IsNegative() {
			return Zero(), &InvalidInputError{
				Field:  "unit_price",
				Reason: "must not be negative (item " + strconv.Itoa(i) + ")",
			}
		}
		subtotal = subtotal.Add(item.UnitPrice.Mul(item.Quantity))
	}

	return subtotal.Add(freight).Sub(discount).Round2(), nil
}
