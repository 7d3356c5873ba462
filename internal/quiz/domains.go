package quiz

import "strings"

// Domain is a selectable interest group and the backend tags it expands to.
type Domain struct {
	Name string
	Slug string
	Tags []string
}

// Domains in canonical order; payload tags follow this order.
var Domains = []Domain{
	{Name: "AI & ML", Slug: "ai-ml", Tags: []string{"AI", "Machine Learning", "Deep Learning", "Generative AI"}},
	{Name: "Cybersecurity", Slug: "cybersecurity", Tags: []string{"Security", "Cryptocurrency", "Blockchain"}},
	{Name: "UI/UX Design", Slug: "ui-ux-design", Tags: []string{"UI/UX", "Design", "Design Thinking"}},
	{Name: "Web Development", Slug: "web-development", Tags: []string{"Web Development", "HTML", "CSS", "JavaScript", "React"}},
	{Name: "Cloud & DevOps", Slug: "cloud-linux", Tags: []string{"Cloud", "DevOps", "Linux"}},
	{Name: "Data Science", Slug: "data-science", Tags: []string{"Data Science", "Data Analysis", "Python"}},
	{Name: "Programming", Slug: "programming", Tags: []string{"Programming", "Python", "Java", "OOP"}},
}

// DomainBySlug looks a group up by its URL slug.
func DomainBySlug(slug string) (Domain, bool) {
	for _, d := range Domains {
		if d.Slug == slug {
			return d, true
		}
	}
	return Domain{}, false
}

// DomainByName matches a group by name or slug, case-insensitively.
func DomainByName(name string) (Domain, bool) {
	n := strings.TrimSpace(name)
	for _, d := range Domains {
		if strings.EqualFold(d.Name, n) || strings.EqualFold(d.Slug, n) {
			return d, true
		}
	}
	return Domain{}, false
}

// ExpandTags returns the union of the selected groups' tags in canonical
// order without duplicates. Unknown groups contribute nothing; the result
// is never nil.
func ExpandTags(groups []string) []string {
	selected := make(map[string]bool, len(groups))
	for _, g := range groups {
		if d, ok := DomainByName(g); ok {
			selected[d.Slug] = true
		}
	}
	tags := []string{}
	seen := map[string]bool{}
	for _, d := range Domains {
		if !selected[d.Slug] {
			continue
		}
		for _, t := range d.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	return tags
}
