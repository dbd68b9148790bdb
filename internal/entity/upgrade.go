package entity

import "fmt"

// Upgrade is a permanent improvement granted between waves.
type Upgrade int

const (
	UpgradeAccuracy Upgrade = iota
	UpgradeDamage
	UpgradeSpeed
	UpgradeVitality
)

// Upgrades lists every upgrade in menu order.
var Upgrades = []Upgrade{UpgradeAccuracy, UpgradeDamage, UpgradeSpeed, UpgradeVitality}

// String returns the upgrade name.
func (u Upgrade) String() string {
	switch u {
	case UpgradeAccuracy:
		return "Accuracy"
	case UpgradeDamage:
		return "Damage"
	case UpgradeSpeed:
		return "Speed"
	case UpgradeVitality:
		return "Vitality"
	default:
		return "Unknown"
	}
}

// Apply improves the character and returns a log line describing the gain.
func (u Upgrade) Apply(c *Character) string {
	switch u {
	case UpgradeAccuracy:
		c.AttackBonus++
		return fmt.Sprintf("%s gains +1 to attack rolls!", c.Name)
	case UpgradeDamage:
		c.BonusDamage += 2
		return fmt.Sprintf("%s gains +2 to damage!", c.Name)
	case UpgradeSpeed:
		c.Speed += 2
		return fmt.Sprintf("%s can move 2 more squares!", c.Name)
	case UpgradeVitality:
		c.MaxHP += 10
		c.HP += 10
		return fmt.Sprintf("%s gains 10 max HP!", c.Name)
	default:
		return ""
	}
}
