package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create transformation_revisions table
			CREATE TABLE transformation_revisions (
				id UUID PRIMARY KEY,
				revision_group_id UUID NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL,
				category VARCHAR(255) NOT NULL,
				version_tag VARCHAR(255) NOT NULL,
				state VARCHAR(50) NOT NULL CHECK (state IN ('DRAFT', 'RELEASED', 'DISABLED')),
				type VARCHAR(50) NOT NULL CHECK (type IN ('COMPONENT', 'WORKFLOW')),
				documentation TEXT NOT NULL DEFAULT '',
				component_code TEXT,
				workflow_content JSONB,
				io_interface JSONB NOT NULL DEFAULT '{}',
				test_wiring JSONB,
				released_timestamp TIMESTAMP WITH TIME ZONE,
				disabled_timestamp TIMESTAMP WITH TIME ZONE,

				CONSTRAINT revision_group_id_plus_version_tag_uc
					UNIQUE (revision_group_id, version_tag),

				-- Exactly one of component_code / workflow_content is present
				CONSTRAINT exactly_one_content_cc CHECK (
					(   (CASE WHEN component_code IS NULL THEN 0 ELSE 1 END)
					  + (CASE WHEN workflow_content IS NULL THEN 0 ELSE 1 END)
					) = 1
				)
			);

			CREATE INDEX idx_transformation_revisions_group ON transformation_revisions(revision_group_id);
			CREATE INDEX idx_transformation_revisions_state ON transformation_revisions(state);
			CREATE INDEX idx_transformation_revisions_type ON transformation_revisions(type);
			CREATE INDEX idx_transformation_revisions_category ON transformation_revisions(category);
			CREATE INDEX idx_transformation_revisions_name ON transformation_revisions(name);

			-- Create nestings closure table
			CREATE TABLE nestings (
				workflow_id UUID NOT NULL REFERENCES transformation_revisions(id) ON DELETE CASCADE,
				via_transformation_id UUID NOT NULL,
				via_operator_id UUID NOT NULL,
				depth INTEGER NOT NULL,
				nested_transformation_id UUID NOT NULL,
				nested_operator_id UUID NOT NULL,
				PRIMARY KEY (workflow_id, via_operator_id, depth, nested_operator_id),

				CONSTRAINT depth_natural_number_cc CHECK (depth > 0),

				-- depth == 1 iff via identity equals nested identity
				CONSTRAINT via_ids_equal_nested_ids_for_direct_nesting_cc CHECK (
					(   (CASE WHEN depth > 1 THEN 1 ELSE 0 END)
					  + (  (CASE WHEN via_transformation_id = nested_transformation_id THEN 1 ELSE 0 END)
					     * (CASE WHEN via_operator_id = nested_operator_id THEN 1 ELSE 0 END)
					    )
					) = 1
				)
			);

			CREATE INDEX idx_nestings_workflow_id ON nestings(workflow_id);
			CREATE INDEX idx_nestings_nested_transformation_id ON nestings(nested_transformation_id);
		`,
	}
}
