package points

import "fmt"

func fmtSscanCity(id string, ci *int) (int, error) {
	var j int
	return fmt.Sscanf(id, "pvz-%d-%d", ci, &j)
}
