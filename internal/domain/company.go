package domain

type Company struct {
	ID   int64
	Name string
}

type Department struct {
	ID          int64
	Name        string
	Description string
}

// Scope narrows a fetch to a company and, optionally, one of its departments.
type Scope struct {
	Company    Company
	Department *Department
}
