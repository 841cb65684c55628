package app

import (
	"context"
	"sort"
	"strconv"

	"reviewit/internal/domain"
)

// StaticDirectory resolves ids from a fixed list, for deployments whose
// reviews live in object storage rather than the relational store.
type StaticDirectory struct {
	companies   map[int64]domain.Company
	departments map[int64]domain.Department
}

func NewStaticDirectory(cs []domain.Company, ds []domain.Department) *StaticDirectory {
	d := &StaticDirectory{
		companies:   make(map[int64]domain.Company, len(cs)),
		departments: make(map[int64]domain.Department, len(ds)),
	}
	for _, c := range cs {
		d.companies[c.ID] = c
	}
	for _, dep := range ds {
		d.departments[dep.ID] = dep
	}
	return d
}

func (d *StaticDirectory) Company(_ context.Context, id int64) (domain.Company, error) {
	c, ok := d.companies[id]
	if !ok {
		return domain.Company{}, domain.InvalidReference("unknown company id " + strconv.FormatInt(id, 10))
	}
	return c, nil
}

func (d *StaticDirectory) Companies(_ context.Context) ([]domain.Company, error) {
	out := make([]domain.Company, 0, len(d.companies))
	for _, c := range d.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *StaticDirectory) Department(_ context.Context, id int64) (domain.Department, error) {
	dep, ok := d.departments[id]
	if !ok {
		return domain.Department{}, domain.InvalidReference("unknown department id " + strconv.FormatInt(id, 10))
	}
	return dep, nil
}
