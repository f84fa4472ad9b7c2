package reports

import "github.com/runreward/runreward/internal/models"

// Count is one bucket of a grouping, e.g. a city and its number of users.
type Count struct {
	Key string
	N   int
}

// Demographics groups users the way the administrator report does. Buckets
// keep the order in which their key first appears.
type Demographics struct {
	Total    int
	ByStatus []Count
	ByGender []Count
	ByCity   []Count
	ByShoe   []Count
}

type counter struct {
	idx    map[string]int
	counts []Count
}

func (c *counter) add(key string) {
	if c.idx == nil {
		c.idx = map[string]int{}
	}
	i, ok := c.idx[key]
	if !ok {
		i = len(c.counts)
		c.idx[key] = i
		c.counts = append(c.counts, Count{Key: key})
	}
	c.counts[i].N++
}

func (c *counter) result() []Count {
	if c.counts == nil {
		return []Count{}
	}
	return c.counts
}

func NewDemographics(users []models.User) Demographics {
	var status, gender, city, shoe counter
	for _, u := range users {
		status.add(string(u.Status))
		gender.add(u.Gender)
		city.add(u.City)
		shoe.add(u.ShoeSize)
	}
	return Demographics{
		Total:    len(users),
		ByStatus: status.result(),
		ByGender: gender.result(),
		ByCity:   city.result(),
		ByShoe:   shoe.result(),
	}
}

// Of returns the count for key, 0 when absent.
func Of(counts []Count, key string) int {
	for _, c := range counts {
		if c.Key == key {
			return c.N
		}
	}
	return 0
}
