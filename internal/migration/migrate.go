package migration

import (
	"github.com/gtracker/forum-backend/internal/domain"
	"gorm.io/gorm"
)

// Models every table owned by the forum, in dependency order
func Models() []interface{} {
	models := []interface{}{
		&domain.User{},
		&domain.Profile{},
		&domain.InviteCode{},
		&domain.VerificationCode{},
		&domain.SystemSetting{},
		&domain.TokenBlacklist{},
		&domain.Category{},
		&domain.Thread{},
	}
	models = append(models, domain.ThreadContentModels()...)
	return append(models,
		&domain.Post{},
		&domain.ThreadLike{},
		&domain.PostLike{},
		&domain.Ban{},
		&domain.Unban{},
		&domain.RoleChange{},
		&domain.ContentCache{},
	)
}

// Run creates missing tables, columns and indexes
func Run(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	return ensureOneActiveBan(db)
}

const activeBanIndex = "idx_bans_one_active"

// ensureOneActiveBan adds the unique key that allows a single active ban per
// target. MySQL has no partial indexes, so it indexes a generated column that
// is NULL for inactive rows.
func ensureOneActiveBan(db *gorm.DB) error {
	switch db.Dialector.Name() {
	case "mysql":
		if db.Migrator().HasIndex(&domain.Ban{}, activeBanIndex) {
			return nil
		}
		return db.Exec("ALTER TABLE bans " +
			"ADD COLUMN active_target varchar(36) GENERATED ALWAYS AS (IF(is_active, target_user_id, NULL)) STORED, " +
			"ADD UNIQUE INDEX " + activeBanIndex + " (active_target)").Error
	default:
		return db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS " + activeBanIndex + " ON bans (target_user_id) WHERE is_active").Error
	}
}

// Seed inserts default settings and, on an empty forum, the starter
// category tree. Safe to run repeatedly.
func Seed(db *gorm.DB) error {
	if err := seedSettings(db); err != nil {
		return err
	}

	var count int64
	if err := db.Model(&domain.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return seedCategories(db)
	}
	return nil
}

func seedSettings(db *gorm.DB) error {
	defaults := []domain.SystemSetting{
		{Key: domain.SettingRequireInviteCode, Value: "false", Description: "Exigir código de convite para novos registros"},
	}
	for i := range defaults {
		if err := db.Where("setting_key = ?", defaults[i].Key).FirstOrCreate(&defaults[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

type seedCategory struct {
	name, slug, description, icon string
	locked                        bool
	children                      []seedCategory
}

var starterTree = []seedCategory{
	{name: "Comunidade", slug: "comunidade", description: "Discussões gerais do fórum", icon: "users", children: []seedCategory{
		{name: "Anúncios", slug: "anuncios", description: "Comunicados da equipe", icon: "megaphone", locked: true},
		{name: "Geral", slug: "geral", description: "Conversa livre", icon: "message-circle"},
		{name: "Suporte", slug: "suporte", description: "Dúvidas e ajuda", icon: "life-buoy"},
	}},
	{name: "Downloads", slug: "downloads", description: "Lançamentos da comunidade", icon: "download", children: []seedCategory{
		{name: "Filmes e Séries", slug: "filmes-e-series", description: "Filmes, séries e animes", icon: "film"},
		{name: "Jogos", slug: "jogos", description: "Jogos para PC", icon: "gamepad-2"},
		{name: "Software", slug: "software", description: "Programas e ferramentas", icon: "app-window"},
		{name: "Torrents", slug: "torrents", description: "Conteúdo via torrent", icon: "magnet"},
	}},
}

func seedCategories(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for i, root := range starterTree {
			if err := createSeed(tx, root, nil, 0, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func createSeed(tx *gorm.DB, s seedCategory, parentID *string, level, order int) error {
	c := &domain.Category{
		Name:         s.name,
		Slug:         s.slug,
		Description:  s.description,
		Icon:         s.icon,
		ParentID:     parentID,
		DisplayOrder: order,
		IsLocked:     s.locked,
		Level:        level,
	}
	if err := tx.Create(c).Error; err != nil {
		return err
	}
	for i, child := range s.children {
		if err := createSeed(tx, child, &c.ID, level+1, i); err != nil {
			return err
		}
	}
	return nil
}
