package settlement

import (
	"testing"
)

func TestValidateOrderPaid(t *testing.T) {
	valid := OrderPaidEvent{
		OrderID:    "order-1",
		UserID:     "user-1",
		PaidAmount: "150.00",
		Items: []OrderItem{
			{CourseID: "course-1", InstructorID: "inst-1", Price: "100.00"},
			{CourseID: "course-2", InstructorID: "inst-2", Price: "50.00"},
		},
	}

	tests := []struct {
		name    string
		mutate  func(e *OrderPaidEvent)
		wantErr bool
	}{
		{name: "valid", mutate: func(e *OrderPaidEvent) {}, wantErr: false},
		{name: "missing order_id", mutate: func(e *OrderPaidEvent) { e.OrderID = "" }, wantErr: true},
		{name: "missing user_id", mutate: func(e *OrderPaidEvent) { e.UserID = "" }, wantErr: true},
		{name: "no items", mutate: func(e *OrderPaidEvent) { e.Items = nil }, wantErr: true},
		{name: "zero paid amount", mutate: func(e *OrderPaidEvent) { e.PaidAmount = "0" }, wantErr: true},
		{name: "item without instructor", mutate: func(e *OrderPaidEvent) { e.Items[0].InstructorID = "" }, wantErr: true},
		{name: "item without course", mutate: func(e *OrderPaidEvent) { e.Items[1].CourseID = "" }, wantErr: true},
		{name: "negative item price", mutate: func(e *OrderPaidEvent) { e.Items[0].Price = "-100.00" }, wantErr: true},
		{name: "prices do not sum to paid", mutate: func(e *OrderPaidEvent) { e.PaidAmount = "149.99" }, wantErr: true},
		{
			name: "equivalent formatting accepted",
			mutate: func(e *OrderPaidEvent) {
				e.PaidAmount = "150"
				e.Items[0].Price = "100"
				e.Items[1].Price = "50.0"
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := valid
			event.Items = make([]OrderItem, len(valid.Items))
			copy(event.Items, valid.Items)
			tt.mutate(&event)

			err := validateOrderPaid(&event)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateOrderPaid() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
