// Package preset - built-in presets
package preset

func f64(v float64) *float64 { return &v }

// builtinPresets returns the presets shipped with the platform. Tenants can
// extend these via configuration; the shapes below cover the common CRM,
// catalog and scheduling objects.
func builtinPresets() []*Preset {
	return []*Preset{
		{
			EntityType: "customer",
			SmartCode:  "HERA.CRM.CUST.STANDARD.v1",
			Labels:     Labels{Singular: "Customer", Plural: "Customers"},
			DynamicFields: []FieldSpec{
				{Name: "email", Type: TypeText, Required: true, SmartCode: "HERA.CRM.CUST.FIELD.EMAIL.v1",
					UI: UISpec{Label: "Email", Placeholder: "name@example.com", Widget: "input"}},
				{Name: "phone", Type: TypeText, SmartCode: "HERA.CRM.CUST.FIELD.PHONE.v1",
					UI: UISpec{Label: "Phone", Widget: "input"}},
				{Name: "vip", Type: TypeBoolean, SmartCode: "HERA.CRM.CUST.FIELD.VIP.v1",
					UI: UISpec{Label: "VIP", Widget: "checkbox"}},
				{Name: "notes", Type: TypeText, SmartCode: "HERA.CRM.CUST.FIELD.NOTES.v1",
					UI: UISpec{Label: "Notes", Widget: "textarea"}},
				{Name: "birth_date", Type: TypeDate, SmartCode: "HERA.CRM.CUST.FIELD.BIRTH_DATE.v1",
					UI: UISpec{Label: "Birth date", Widget: "date"}},
			},
			Relationships: []RelationshipSpec{
				{Type: "HAS_CATEGORY", TargetEntityType: "customer_category", Cardinality: CardinalityOne,
					SmartCode: "HERA.CRM.CUST.REL.HAS_CATEGORY.v1"},
			},
			Permissions: Permissions{
				ActionDelete: {"owner", "manager"},
			},
		},
		{
			EntityType: "product",
			SmartCode:  "HERA.INV.PROD.STANDARD.v1",
			Labels:     Labels{Singular: "Product", Plural: "Products"},
			DynamicFields: []FieldSpec{
				{Name: "price", Type: TypeNumber, Required: true, Min: f64(0), SmartCode: "HERA.INV.PROD.FIELD.PRICE.v1",
					UI: UISpec{Label: "Price", Widget: "input", Format: "currency"}},
				{Name: "cost", Type: TypeNumber, Min: f64(0), SmartCode: "HERA.INV.PROD.FIELD.COST.v1",
					UI: UISpec{Label: "Cost", Widget: "input", Format: "currency", Roles: []string{"owner", "manager"}}},
				{Name: "sku", Type: TypeText, SmartCode: "HERA.INV.PROD.FIELD.SKU.v1",
					UI: UISpec{Label: "SKU", Widget: "input"}},
				{Name: "stock_quantity", Type: TypeNumber, Min: f64(0), SmartCode: "HERA.INV.PROD.FIELD.STOCK.v1",
					UI: UISpec{Label: "Stock quantity", Widget: "input"}},
				{Name: "attributes", Type: TypeJSON, SmartCode: "HERA.INV.PROD.FIELD.ATTRS.v1",
					UI: UISpec{Label: "Attributes", Widget: "textarea"}},
			},
			Relationships: []RelationshipSpec{
				{Type: "HAS_CATEGORY", TargetEntityType: "product_category", Cardinality: CardinalityOne,
					SmartCode: "HERA.INV.PROD.REL.HAS_CATEGORY.v1"},
				{Type: "AVAILABLE_AT", TargetEntityType: "branch", Cardinality: CardinalityMany,
					SmartCode: "HERA.INV.PROD.REL.AVAILABLE_AT.v1"},
			},
			Permissions: Permissions{
				ActionCreate: {"owner", "manager"},
				ActionEdit:   {"owner", "manager"},
				ActionDelete: {"owner"},
			},
		},
		{
			EntityType: "service",
			SmartCode:  "HERA.SALON.SVC.STANDARD.v1",
			Labels:     Labels{Singular: "Service", Plural: "Services"},
			DynamicFields: []FieldSpec{
				{Name: "price", Type: TypeNumber, Required: true, Min: f64(0), SmartCode: "HERA.SALON.SVC.FIELD.PRICE.v1",
					UI: UISpec{Label: "Price", Widget: "input", Format: "currency"}},
				{Name: "duration_minutes", Type: TypeNumber, Min: f64(0), Max: f64(600), SmartCode: "HERA.SALON.SVC.FIELD.DURATION.v1",
					UI: UISpec{Label: "Duration (minutes)", Widget: "input"}},
				{Name: "commission_rate", Type: TypeNumber, Min: f64(0), Max: f64(100), SmartCode: "HERA.SALON.SVC.FIELD.COMMISSION.v1",
					UI: UISpec{Label: "Commission rate", Widget: "input", Format: "percent", Roles: []string{"owner", "manager"}}},
				{Name: "description", Type: TypeText, SmartCode: "HERA.SALON.SVC.FIELD.DESCRIPTION.v1",
					UI: UISpec{Label: "Description", Widget: "textarea"}},
			},
			Relationships: []RelationshipSpec{
				{Type: "HAS_CATEGORY", TargetEntityType: "service_category", Cardinality: CardinalityOne,
					SmartCode: "HERA.SALON.SVC.REL.HAS_CATEGORY.v1"},
				{Type: "AVAILABLE_AT", TargetEntityType: "branch", Cardinality: CardinalityMany,
					SmartCode: "HERA.SALON.SVC.REL.AVAILABLE_AT.v1"},
			},
			Permissions: Permissions{
				ActionCreate: {"owner", "manager"},
				ActionEdit:   {"owner", "manager"},
				ActionDelete: {"owner", "manager"},
			},
		},
		{
			EntityType: "staff",
			SmartCode:  "HERA.HR.STAFF.STANDARD.v1",
			Labels:     Labels{Singular: "Staff member", Plural: "Staff"},
			DynamicFields: []FieldSpec{
				{Name: "email", Type: TypeText, Required: true, SmartCode: "HERA.HR.STAFF.FIELD.EMAIL.v1",
					UI: UISpec{Label: "Email", Widget: "input"}},
				{Name: "role_title", Type: TypeText, SmartCode: "HERA.HR.STAFF.FIELD.ROLE.v1",
					UI: UISpec{Label: "Role", Widget: "select"}},
				{Name: "hire_date", Type: TypeDate, SmartCode: "HERA.HR.STAFF.FIELD.HIRE_DATE.v1",
					UI: UISpec{Label: "Hire date", Widget: "date"}},
				{Name: "hourly_cost", Type: TypeNumber, Min: f64(0), SmartCode: "HERA.HR.STAFF.FIELD.HOURLY_COST.v1",
					UI: UISpec{Label: "Hourly cost", Widget: "input", Format: "currency", Roles: []string{"owner"}}},
			},
			Relationships: []RelationshipSpec{
				{Type: "WORKS_AT", TargetEntityType: "branch", Cardinality: CardinalityMany,
					SmartCode: "HERA.HR.STAFF.REL.WORKS_AT.v1"},
			},
			Permissions: Permissions{
				ActionCreate: {"owner"},
				ActionEdit:   {"owner"},
				ActionDelete: {"owner"},
			},
		},
		{
			EntityType: "branch",
			SmartCode:  "HERA.ORG.BRANCH.STANDARD.v1",
			Labels:     Labels{Singular: "Branch", Plural: "Branches"},
			DynamicFields: []FieldSpec{
				{Name: "address", Type: TypeText, SmartCode: "HERA.ORG.BRANCH.FIELD.ADDRESS.v1",
					UI: UISpec{Label: "Address", Widget: "textarea"}},
				{Name: "phone", Type: TypeText, SmartCode: "HERA.ORG.BRANCH.FIELD.PHONE.v1",
					UI: UISpec{Label: "Phone", Widget: "input"}},
				{Name: "opening_hours", Type: TypeJSON, SmartCode: "HERA.ORG.BRANCH.FIELD.HOURS.v1",
					UI: UISpec{Label: "Opening hours", Widget: "textarea"}},
			},
			Permissions: Permissions{
				ActionCreate: {"owner"},
				ActionEdit:   {"owner"},
				ActionDelete: {"owner"},
			},
		},
	}
}
